package layer

// Unsupported keeps the body of a message type without a dedicated layout.
// Remainder is a copy of every byte after the 4 byte common header.
type Unsupported struct {
	Remainder []byte
}

func (*Unsupported) icmpv6Payload() {}

// decodeUnsupported claims the whole buffer since the message boundary is
// unknown.
func decodeUnsupported(data []byte) (ICMPv6Payload, int, error) {
	rest := make([]byte, len(data)-icmpv6CommonLen)
	copy(rest, data[icmpv6CommonLen:])
	return &Unsupported{Remainder: rest}, len(data), nil
}
