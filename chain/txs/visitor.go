package txs

// Visitor is called with the concrete arguments of a call variant.
type Visitor interface {
	Transfer(*TransferArgs) error
	Batch(*BatchArgs) error
	AddressInitialization(*AddressInitializationArgs) error
	Unnominate(*UnnominateArgs) error
}
