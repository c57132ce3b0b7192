package logging

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestAddresses(t *testing.T) {
	assert.Empty(t, Addresses(nil))

	addresses := []common.Address{
		common.HexToAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3"),
		common.HexToAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8"),
	}
	assert.Equal(t, []string{
		"0x5FbDB2315678afecb367f032d93F642f64180aa3",
		"0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	}, Addresses(addresses))
}
