// Package wimp defines the guest desktop's inter-task message protocol, as far
// as the clipboard needs it, and an in-process bus that delivers messages
// between registered tasks.
//
// Messages carry correlation references: every send stamps a fresh MyRef, and
// a reply names the message it answers in YourRef. Tasks match replies
// against the references they are waiting on and ignore everything else.
package wimp

import (
	"fmt"

	"go.klb.dev/clipbridge/internal/filetype"
)

// Task identifies a registered task. Broadcast addresses every task.
type Task uint32

const Broadcast Task = 0

// Ref is a message correlation reference. Zero means "none".
type Ref uint32

// Delivery is the event class a message arrives as.
type Delivery int

const (
	// User messages need no answer.
	User Delivery = iota + 17
	// Recorded messages expect a reply.
	Recorded
	// Acknowledge is used for bounced recorded messages.
	Acknowledge
)

func (d Delivery) String() string {
	switch d {
	case User:
		return "user"
	case Recorded:
		return "recorded"
	case Acknowledge:
		return "acknowledge"
	}
	return fmt.Sprintf("delivery(%d)", int(d))
}

// Action is the message number.
type Action uint32

const (
	ActionQuit        Action = 0x0
	ActionDataSave    Action = 0x1
	ActionDataSaveAck Action = 0x2
	ActionDataLoad    Action = 0x3
	ActionDataLoadAck Action = 0x4
	ActionRAMFetch    Action = 0x6
	ActionRAMTransmit Action = 0x7
	ActionClaimEntity Action = 0xf
	ActionDataRequest Action = 0x10
)

func (a Action) String() string {
	switch a {
	case ActionQuit:
		return "Quit"
	case ActionDataSave:
		return "DataSave"
	case ActionDataSaveAck:
		return "DataSaveAck"
	case ActionDataLoad:
		return "DataLoad"
	case ActionDataLoadAck:
		return "DataLoadAck"
	case ActionRAMFetch:
		return "RAMFetch"
	case ActionRAMTransmit:
		return "RAMTransmit"
	case ActionClaimEntity:
		return "ClaimEntity"
	case ActionDataRequest:
		return "DataRequest"
	}
	return fmt.Sprintf("action(%#x)", uint32(a))
}

// Flag bits shared by ClaimEntity and DataRequest.
const (
	FlagCaretSelection uint32 = 0x3
	FlagClipboard      uint32 = 0x4
)

// Body is the typed payload of a message.
type Body interface {
	Action() Action
}

// Message is one protocol message.
type Message struct {
	Delivery Delivery
	Sender   Task
	MyRef    Ref
	YourRef  Ref
	Body     Body

	broadcast bool
}

// Action returns the message number of the body.
func (m *Message) Action() Action {
	if m.Body == nil {
		return ActionQuit
	}
	return m.Body.Action()
}

// DataRequest asks the current owner of an entity for its contents.
// FileTypes lists acceptable types in preference order.
type DataRequest struct {
	Flags     uint32
	FileTypes []filetype.Type
}

func (DataRequest) Action() Action { return ActionDataRequest }

// ClaimEntity announces that the sender now owns the entities in Flags.
type ClaimEntity struct {
	Flags uint32
}

func (ClaimEntity) Action() Action { return ActionClaimEntity }

// Xfer is the body shared by the data transfer messages.
type Xfer struct {
	EstSize  int
	FileType filetype.Type
	FileName string
}

// DataSave offers data of the given type and estimated size.
type DataSave struct{ Xfer }

func (DataSave) Action() Action { return ActionDataSave }

// DataSaveAck accepts an offer and names the file to save into.
type DataSaveAck struct{ Xfer }

func (DataSaveAck) Action() Action { return ActionDataSaveAck }

// DataLoad tells the receiver the named file is ready to load.
type DataLoad struct{ Xfer }

func (DataLoad) Action() Action { return ActionDataLoad }

// DataLoadAck confirms the file was loaded.
type DataLoadAck struct{ Xfer }

func (DataLoadAck) Action() Action { return ActionDataLoadAck }

// RAMFetch asks the owner to copy up to len(Buf) bytes into Buf. Buf is a
// window into the requester's receive buffer.
type RAMFetch struct {
	Buf []byte
}

func (RAMFetch) Action() Action { return ActionRAMFetch }

// Size returns the number of bytes requested.
func (f RAMFetch) Size() int { return len(f.Buf) }

// RAMTransmit reports how many bytes were written into the requester's
// buffer. Fewer than requested means the transfer is complete.
type RAMTransmit struct {
	Size int
}

func (RAMTransmit) Action() Action { return ActionRAMTransmit }

// Quit asks the receiving task to exit.
type Quit struct{}

func (Quit) Action() Action { return ActionQuit }
