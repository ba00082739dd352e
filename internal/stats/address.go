package stats

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

var ErrInvalidAddress = errors.New("invalid server address")

const KAG_URI_PREFIX = "kag://"

// Split "ip:port" or "kag://ip:port" into its parts
func ParseAddress(address string) (string, int, error) {

	// Links are usually pasted as <kag://ip:port>
	address = strings.TrimSpace(address)
	address = strings.TrimSuffix(strings.TrimPrefix(address, "<"), ">")
	address = strings.TrimSuffix(strings.TrimPrefix(address, KAG_URI_PREFIX), "/")

	host, rawPort, err := net.SplitHostPort(address)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s is not a port", ErrInvalidAddress, rawPort)
	}
	if err := ValidateAddress(host, port); err != nil {
		return "", 0, err
	}
	return host, port, nil
}

func ValidateAddress(ip string, port int) error {
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("%w: %s is not an ip", ErrInvalidAddress, ip)
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%w: %d is not a port", ErrInvalidAddress, port)
	}
	return nil
}
