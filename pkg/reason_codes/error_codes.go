package reasoncodes

type ReasonCode string

const (
	ErrUnmarshal        ReasonCode = "UnmarshalError"
	ErrMarshal          ReasonCode = "MarshalError"
	ErrTransport        ReasonCode = "TransportError"
	ErrReadBody         ReasonCode = "ReadBodyError"
	ErrUnexpectedStatus ReasonCode = "UnexpectedStatusError"
	ErrMissingField     ReasonCode = "MissingFieldError"
	ErrInvalidArgument  ReasonCode = "InvalidArgumentError"
	ErrPersistence      ReasonCode = "PersistenceError"
	ErrEventPublish     ReasonCode = "EventPublishError"
)
