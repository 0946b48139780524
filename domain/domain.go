package domain

type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Registry tracks which session owns which live connection.
type Registry interface {
	Register(conn Connection) error
	SetName(conn Connection, name string)
	FindByName(name string) (Connection, bool)
	ListNames() []string
	AdjustLife(conn Connection, delta int) (life int, applied bool)
	Life(conn Connection) (int, bool)
	Remove(conn Connection) (string, bool)
	Connections() []Connection
	Stats() (connections, named int)
}

type MessageHandler interface {
	Handle(conn Connection, data []byte)
	Leave(conn Connection, name string)
}
