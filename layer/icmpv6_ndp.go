package layer

import "encoding/binary"

// Neighbor Discovery messages. Options trailing the fixed part are not
// decoded and are not counted as consumed.

/*
0                   1                   2                   3
0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1

+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|     Type      |     Code      |          Checksum             |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
| Cur Hop Limit |M|O|  Reserved |       Router Lifetime         |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                         Reachable Time                        |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                          Retrans Timer                        |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|   Options ...
+-+-+-+-+-+-+-+-+-+-+-+-

	RFC4861 Section 4.2: Router Advertisement Message Format
*/
type RouterAdvertisement struct {
	CurHopLimit    uint8                    `json:"cur_hop_limit"`
	Flags          RouterAdvertisementFlags `json:"flags"`
	RouterLifetime uint16                   `json:"router_lifetime"`
	ReachableTime  uint32                   `json:"reachable_time"`
	RetransTimer   uint32                   `json:"retrans_timer"`
}

type RouterAdvertisementFlags struct {
	ManagedAddress bool `json:"managed_address_flag"`
	OtherConfig    bool `json:"other_config"`
}

const (
	routerAdvertisementLen = 16

	raManagedFlagMask = 1 << 7
	raOtherFlagMask   = 1 << 6
)

func (*RouterAdvertisement) icmpv6Payload() {}

func decodeRouterAdvertisement(data []byte) (ICMPv6Payload, int, error) {
	if err := need(data, routerAdvertisementLen); err != nil {
		return nil, 0, err
	}
	flags := data[5]
	return &RouterAdvertisement{
		CurHopLimit: data[4],
		Flags: RouterAdvertisementFlags{
			ManagedAddress: flags&raManagedFlagMask != 0,
			OtherConfig:    flags&raOtherFlagMask != 0,
		},
		RouterLifetime: binary.BigEndian.Uint16(data[6:8]),
		ReachableTime:  binary.BigEndian.Uint32(data[8:12]),
		RetransTimer:   binary.BigEndian.Uint32(data[12:16]),
	}, routerAdvertisementLen, nil
}

/*
0                   1                   2                   3
0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1

+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|     Type      |     Code      |          Checksum             |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                           Reserved                            |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                                                               |
+                                                               +
|                                                               |
+                       Target Address                          +
|                                                               |
+                                                               +
|                                                               |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|   Options ...
+-+-+-+-+-+-+-+-+-+-+-+-

	RFC4861 Section 4.3: Neighbor Solicitation Message Format
*/
type NeighborSolicitation struct {
	TargetAddress IPv6Address `json:"target_address"`
}

const neighborLen = 24

func (*NeighborSolicitation) icmpv6Payload() {}

func decodeNeighborSolicitation(data []byte) (ICMPv6Payload, int, error) {
	if err := need(data, neighborLen); err != nil {
		return nil, 0, err
	}
	// bytes 4-7 are reserved
	return &NeighborSolicitation{TargetAddress: addressAt(data, 8)}, neighborLen, nil
}

/*
0                   1                   2                   3
0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1

+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|     Type      |     Code      |          Checksum             |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|R|S|O|                     Reserved                            |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                                                               |
+                                                               +
|                                                               |
+                       Target Address                          +
|                                                               |
+                                                               +
|                                                               |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|   Options ...
+-+-+-+-+-+-+-+-+-+-+-+-

	RFC4861 Section 4.4: Neighbor Advertisement Message Format
*/
type NeighborAdvertisement struct {
	Flags         NeighborAdvertisementFlags `json:"flags"`
	TargetAddress IPv6Address                `json:"target_address"`
}

type NeighborAdvertisementFlags struct {
	Router    bool `json:"from_router"`
	Solicited bool `json:"solicited_flag"`
	Override  bool `json:"override_flag"`
}

const (
	naRouterFlagMask    = 1 << 7
	naSolicitedFlagMask = 1 << 6
	naOverrideFlagMask  = 1 << 5
)

func (*NeighborAdvertisement) icmpv6Payload() {}

func decodeNeighborAdvertisement(data []byte) (ICMPv6Payload, int, error) {
	if err := need(data, neighborLen); err != nil {
		return nil, 0, err
	}
	flags := data[4]
	return &NeighborAdvertisement{
		Flags: NeighborAdvertisementFlags{
			Router:    flags&naRouterFlagMask != 0,
			Solicited: flags&naSolicitedFlagMask != 0,
			Override:  flags&naOverrideFlagMask != 0,
		},
		TargetAddress: addressAt(data, 8),
	}, neighborLen, nil
}

/*
0                   1                   2                   3
0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1

+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|     Type      |     Code      |          Checksum             |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                           Reserved                            |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                                                               |
+                                                               +
|                                                               |
+                       Target Address                          +
|                                                               |
+                                                               +
|                                                               |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                                                               |
+                                                               +
|                                                               |
+                     Destination Address                       +
|                                                               |
+                                                               +
|                                                               |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|   Options ...
+-+-+-+-+-+-+-+-+-+-+-+-

	RFC4861 Section 4.5: Redirect Message Format
*/
type Redirect struct {
	TargetAddress      IPv6Address `json:"target_address"`
	DestinationAddress IPv6Address `json:"destination_address"`
}

const redirectLen = 40

func (*Redirect) icmpv6Payload() {}

func decodeRedirect(data []byte) (ICMPv6Payload, int, error) {
	if err := need(data, redirectLen); err != nil {
		return nil, 0, err
	}
	return &Redirect{
		TargetAddress:      addressAt(data, 8),
		DestinationAddress: addressAt(data, 24),
	}, redirectLen, nil
}
