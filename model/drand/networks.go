package drand

import (
	"encoding/hex"
	"fmt"
)

const (
	NetworkQuicknet = "quicknet"
	NetworkFastnet  = "fastnet"
)

// DefaultEndpoints are public HTTP relays serving the League of Entropy chains.
var DefaultEndpoints = []string{
	// Protocol Labs
	"https://api.drand.sh",
	"https://api2.drand.sh",
	"https://api3.drand.sh",
	// Cloudflare
	"https://drand.cloudflare.com",
	// Storswift
	"https://api.drand.secureweb3.com:6875",
}

// Quicknet returns the parameters of the League of Entropy quicknet chain
// (3s period, unchained BLS signatures on G1).
func Quicknet() *ChainInfo {
	return &ChainInfo{
		PublicKey:   mustDecodeHex("83cf0f2896adee7eb8b5f01fcad3912212c437e0073e911fb90022d3e760183c8c4b450b6a0a6c3ac6a5776a2d1064510d1fec758c921cc22b0e17e63aaf4bcb5ed66304de9cf809bd274ca73bab4af5a6e9c76a4bc09e76eae8991ef5ece45a"),
		Period:      3,
		GenesisTime: 1692803367,
		Hash:        mustDecodeHex("52db9ba70e0cc0f6eaf7803dd07447a1f5477735fd3f661792ba94600c84e971"),
		Scheme:      "bls-unchained-g1-rfc9380",
		Metadata:    Metadata{BeaconID: NetworkQuicknet},
	}
}

// Fastnet returns the parameters of the deprecated fastnet chain.
func Fastnet() *ChainInfo {
	return &ChainInfo{
		PublicKey:   mustDecodeHex("a0b862a7527fee3a731bcb59280ab6abd62d5c0b6ea03dc4ddf6612fdfc9d01f01c31542541771903475eb1ec6615f8d0df0b8b6dce385811d6dcf8cbefb8759e5e616a3dfd054c928940766d9a5b9db91e3b697e5d70a975181e007f87fca5e"),
		Period:      3,
		GenesisTime: 1677685200,
		Hash:        mustDecodeHex("dbd506d6ef76e5f386f41c651dcb808c5bcbd75471cc4eafa3f4df7ad4e4c493"),
		Scheme:      "bls-unchained-on-g1",
		Metadata:    Metadata{BeaconID: NetworkFastnet},
	}
}

// NetworkByName returns the preset chain info for a known network name.
func NetworkByName(name string) (*ChainInfo, error) {
	switch name {
	case NetworkQuicknet:
		return Quicknet(), nil
	case NetworkFastnet:
		return Fastnet(), nil
	default:
		return nil, fmt.Errorf("unknown drand network %q", name)
	}
}

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("invalid hex constant %q: %v", s, err))
	}
	return b
}
