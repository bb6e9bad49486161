package domain

// Inbound is one message as it entered the relay. It lives only for the
// duration of a single fan-out, nothing persists it.
type Inbound struct {
	Room   RoomName
	Sender ConnID
	Text   string
}

// Delivery is what one recipient gets: the text localized for that
// recipient plus a phonetic rendering when one exists.
type Delivery struct {
	To            ConnID
	Text          string
	Pronunciation string
}

// ConnID identifies one live transport connection. Assigned at accept
// time, never reused while the connection is alive.
type ConnID string
