package domain

const (
	TypeMessage   = "message"
	TypeImageData = "image_data"
	TypeCommand   = "command"
	TypeWhisper   = "whisper"
	TypeAttack    = "attack"

	TypeNotification       = "notification"
	TypeUserList           = "user_list"
	TypeWhisperReceived    = "whisper_received"
	TypeWhisperSent        = "whisper_sent"
	TypeWhisperError       = "whisper_error"
	TypeAttackReceived     = "attack_received"
	TypeAttackSent         = "attack_sent"
	TypeAttackError        = "attack_error"
	TypeLifeUpdate         = "life_update"
	TypeAttackNotification = "attack_notification"
)

const (
	CommandQuit  = "quit"
	CommandUsers = "users"
)

// MaxLife is the life every session starts with once it has a name.
const MaxLife = 100

// Envelope is one decoded inbound frame. Sender returns the user or from
// field, empty when the frame carries neither.
type Envelope interface {
	Kind() string
	Sender() string
}

type Message struct {
	Type string `json:"type"`
	User string `json:"user"`
	Text string `json:"text"`
}

func (Message) Kind() string     { return TypeMessage }
func (m Message) Sender() string { return m.User }

type ImageData struct {
	Type     string `json:"type"`
	User     string `json:"user"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

func (ImageData) Kind() string     { return TypeImageData }
func (m ImageData) Sender() string { return m.User }

type Command struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	User    string `json:"user"`
	Payload string `json:"payload,omitempty"`
}

func (Command) Kind() string     { return TypeCommand }
func (m Command) Sender() string { return m.User }

type Whisper struct {
	Type    string `json:"type"`
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

func (Whisper) Kind() string     { return TypeWhisper }
func (m Whisper) Sender() string { return m.From }

type Attack struct {
	Type   string `json:"type"`
	From   string `json:"from"`
	To     string `json:"to"`
	Attack string `json:"attack"`
}

func (Attack) Kind() string     { return TypeAttack }
func (m Attack) Sender() string { return m.From }

// Opaque is any frame whose type the broker does not interpret.
type Opaque struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
}

func (m Opaque) Kind() string   { return m.Type }
func (m Opaque) Sender() string { return m.User }

type UserList struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
	Count int      `json:"count"`
}

type WhisperReceived struct {
	Type    string `json:"type"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type WhisperSent struct {
	Type    string `json:"type"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// ErrorReply answers a whisper or attack whose target is not online.
type ErrorReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type AttackReceived struct {
	Type   string `json:"type"`
	From   string `json:"from"`
	Attack string `json:"attack"`
}

type AttackSent struct {
	Type   string `json:"type"`
	To     string `json:"to"`
	Attack string `json:"attack"`
}

type LifeUpdate struct {
	Type string `json:"type"`
	Life int    `json:"life"`
}

type AttackNotification struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Notification struct {
	Type   string `json:"type"`
	User   string `json:"user"`
	Action string `json:"action"`
}
