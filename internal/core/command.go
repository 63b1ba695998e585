package core

// ReactLike is the only reaction kind currently supported.
const ReactLike = 1

// Mutation describes a change to an existing message. The set of
// implementations is closed: OpRemove, OpEdit, OpPin, OpUnpin, OpReact and
// OpUnreact.
type Mutation interface {
	op() string
}

// OpRemove deletes the message.
type OpRemove struct{}

// OpEdit replaces the message body. An empty body removes the message.
type OpEdit struct {
	Body string
}

// OpPin pins the message.
type OpPin struct{}

// OpUnpin unpins the message.
type OpUnpin struct{}

// OpReact adds the caller's reaction.
type OpReact struct {
	Kind int
}

// OpUnreact withdraws the caller's reaction.
type OpUnreact struct {
	Kind int
}

func (OpRemove) op() string  { return "remove" }
func (OpEdit) op() string    { return "edit" }
func (OpPin) op() string     { return "pin" }
func (OpUnpin) op() string   { return "unpin" }
func (OpReact) op() string   { return "react" }
func (OpUnreact) op() string { return "unreact" }
