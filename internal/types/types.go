package types

import "time"

const LamportsPerSol = 1_000_000_000

// GetBalanceRequest is the payload for balance lookups.
type GetBalanceRequest struct {
	Wallets []string `json:"wallets"`
}

type BalanceEntry struct {
	Wallet    string  `json:"wallet"`
	Lamports  uint64  `json:"lamports"`
	Sol       float64 `json:"sol"`
	Source    string  `json:"source"`     // "cache" or "rpc"
	FetchedAt string  `json:"fetched_at"` // RFC3339
}

// ErrorEntry captures a per-item failure inside an otherwise successful response.
type ErrorEntry struct {
	Wallet string `json:"wallet"`
	Error  string `json:"error"`
}

type GetBalanceResponse struct {
	Balances []BalanceEntry `json:"balances"`
	Errors   []ErrorEntry   `json:"errors"`
}

// DerivePDARequest asks for the program-derived address of Seeds under
// Program. Each seed is written "kind:value", see pda.ParseSeed.
type DerivePDARequest struct {
	Program string   `json:"program"`
	Seeds   []string `json:"seeds"`
}

type DerivePDAResponse struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
}

const (
	DirectionToBase58 = "to-base58"
	DirectionToBytes  = "to-bytes"
)

type ConvertRequest struct {
	Direction string `json:"direction"`
	Input     string `json:"input"`
}

type ConvertResponse struct {
	Output string `json:"output"`
}

// PreviewRequest asks for the submit_rs plan of Signer. Mint is optional;
// a throwaway mint address is generated when empty.
type PreviewRequest struct {
	Signer string `json:"signer"`
	Mint   string `json:"mint,omitempty"`
}

type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsWritable bool   `json:"is_writable"`
	IsSigner   bool   `json:"is_signer"`
}

type PreviewResponse struct {
	Program             string        `json:"program"`
	Signer              string        `json:"signer"`
	Mint                string        `json:"mint"`
	PrereqsAccount      string        `json:"prereqs_account"`
	PrereqsBump         uint8         `json:"prereqs_bump"`
	CollectionAuthority string        `json:"collection_authority"`
	AuthorityBump       uint8         `json:"authority_bump"`
	Accounts            []AccountMeta `json:"accounts"`
	Data                string        `json:"data"` // base58
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }

// LamportsToSol converts lamports to SOL.
func LamportsToSol(l uint64) float64 { return float64(l) / LamportsPerSol }

func NewBalanceEntry(wallet string, lamports uint64, source string, ts time.Time) BalanceEntry {
	return BalanceEntry{
		Wallet:    wallet,
		Lamports:  lamports,
		Sol:       LamportsToSol(lamports),
		Source:    source,
		FetchedAt: ts.UTC().Format(time.RFC3339),
	}
}
