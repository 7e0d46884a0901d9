package settings

// BlockMakerSettings configures coinbase construction and work issuance.
type BlockMakerSettings struct {
	// CoinbaseMinSize is the minimum scriptSig length, including extranonce, of issued work.
	CoinbaseMinSize int
	// ExtranonceSize is the extranonce size requested for merkle-only (getmdata) work.
	ExtranonceSize int
	RollNTime      bool
	ForeignSubmit  bool
	// PayoutScript is the hex encoded output script of the coinbase.
	PayoutScript string
	// DefaultExpires is used when a template carries no expires field, in seconds.
	DefaultExpires int
	// DefaultSizeLimit is used when a template carries no sizelimit field, in bytes.
	DefaultSizeLimit uint64
	// WorkRegistryTTL bounds how long issued work can be matched back to its template, in seconds.
	WorkRegistryTTL int
	// RPCURL is the getblocktemplate/submitblock endpoint, including credentials.
	RPCURL string
	// RPCRetries is the number of attempts made for a node request that fails in transport.
	RPCRetries int
	// RPCRetryBackoff is the base backoff between attempts, in milliseconds.
	RPCRetryBackoff int
	// MetricsListenAddress serves prometheus metrics when set, for example ":9091".
	MetricsListenAddress string
}

type Settings struct {
	ClientName string
	LogLevel   string
	PrettyLogs bool
	BlockMaker BlockMakerSettings
}
