package logging

import (
	"github.com/ethereum/go-ethereum/common"
)

// Addresses returns the checksummed hex form of addresses, for use with zerolog's Strs.
func Addresses(addresses []common.Address) []string {
	ss := make([]string, 0, len(addresses))
	for _, address := range addresses {
		ss = append(ss, address.Hex())
	}
	return ss
}
