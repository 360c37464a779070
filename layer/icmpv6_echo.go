package layer

import "encoding/binary"

/*
0                   1                   2                   3
0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1

+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|     Type      |     Code      |          Checksum             |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|           Identifier          |        Sequence Number        |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|     Data ...
+-+-+-+-+-

	RFC4443 Sections 4.1 and 4.2: Echo Request and Echo Reply Messages
*/

// Echo holds the fields shared by echo requests and replies. The data that
// follows is left to the caller.
type Echo struct {
	Identifier     uint16 `json:"identifier"`
	SequenceNumber uint16 `json:"sequence_number"`
}

// EchoRequest is the payload of type 128.
type EchoRequest struct {
	Echo
}

// EchoReply is the payload of type 129.
type EchoReply struct {
	Echo
}

func (*EchoRequest) icmpv6Payload() {}
func (*EchoReply) icmpv6Payload()   {}

const echoLen = ICMPv6HeaderLen

func decodeEcho(data []byte) (Echo, error) {
	if err := need(data, echoLen); err != nil {
		return Echo{}, err
	}
	return Echo{
		Identifier:     binary.BigEndian.Uint16(data[4:6]),
		SequenceNumber: binary.BigEndian.Uint16(data[6:8]),
	}, nil
}

func decodeEchoRequest(data []byte) (ICMPv6Payload, int, error) {
	e, err := decodeEcho(data)
	if err != nil {
		return nil, 0, err
	}
	return &EchoRequest{Echo: e}, echoLen, nil
}

func decodeEchoReply(data []byte) (ICMPv6Payload, int, error) {
	e, err := decodeEcho(data)
	if err != nil {
		return nil, 0, err
	}
	return &EchoReply{Echo: e}, echoLen, nil
}
