package types

import (
	"fmt"
	"net"
	"strconv"
)

// Peer identifies a node on the gossip network: an IPv4 address and the
// TCP port its P2P listener runs on. Peers are the unit of identity for
// the blacklist and for peer accounting.
type Peer struct {
	IP      [4]byte
	P2PPort uint16
}

// String renders the peer the way log lines and the /peers response do.
func (p Peer) String() string {
	return fmt.Sprintf("%d.%d.%d.%d:%d", p.IP[0], p.IP[1], p.IP[2], p.IP[3], p.P2PPort)
}

// PeerFromRemoteAddr parses a net/http RemoteAddr ("ip:port") and an
// optional x-p2p-port header value into a Peer. The TCP port in
// RemoteAddr is the ephemeral client port and is not used; the p2p port
// comes from the header (or DefaultP2PPort when absent/invalid).
func PeerFromRemoteAddr(remoteAddr, p2pPortHeader string, defaultPort uint16) (Peer, error) {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return Peer{}, fmt.Errorf("invalid peer address %q", remoteAddr)
	}
	v4 := ip.To4()
	if v4 == nil {
		return Peer{}, fmt.Errorf("peer address %q is not ipv4", remoteAddr)
	}

	port := defaultPort
	if p2pPortHeader != "" {
		if n, err := strconv.ParseUint(p2pPortHeader, 10, 16); err == nil {
			port = uint16(n)
		}
	}

	var p Peer
	copy(p.IP[:], v4)
	p.P2PPort = port
	return p, nil
}
