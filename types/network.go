package types

// Network identifies the Stellar network a client targets.
type Network string

const (
	NetworkPubnet     Network = "pubnet"
	NetworkTestnet    Network = "testnet"
	NetworkFuturenet  Network = "futurenet"
	NetworkStandalone Network = "standalone"
)

// Passphrase returns the network passphrase signed into every transaction
// envelope.
func (n Network) Passphrase() string {
	switch n {
	case NetworkPubnet:
		return "Public Global Stellar Network ; September 2015"
	case NetworkTestnet:
		return "Test SDF Network ; September 2015"
	case NetworkFuturenet:
		return "Test SDF Future Network ; October 2022"
	case NetworkStandalone:
		return "Standalone Network ; February 2017"
	default:
		return ""
	}
}

// DefaultRPCURL returns the public Soroban RPC endpoint for the network, if
// one exists.
func (n Network) DefaultRPCURL() string {
	switch n {
	case NetworkTestnet:
		return "https://soroban-testnet.stellar.org"
	case NetworkFuturenet:
		return "https://rpc-futurenet.stellar.org"
	default:
		return ""
	}
}

func (n Network) IsTestnet() bool {
	return n == NetworkTestnet || n == NetworkFuturenet || n == NetworkStandalone
}

func (n Network) String() string {
	return string(n)
}
