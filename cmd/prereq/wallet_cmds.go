package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/example/prereqkit/internal/types"
	"github.com/example/prereqkit/internal/wallet"
	sol "github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

func solToLamports(amount float64) (uint64, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: amount must be a positive number of SOL", wallet.ErrMalformedInput)
	}
	return uint64(math.Round(amount * types.LamportsPerSol)), nil
}

func parseAddress(s string) (sol.PublicKey, error) {
	pk, err := sol.PublicKeyFromBase58(strings.TrimSpace(s))
	if err != nil {
		return sol.PublicKey{}, fmt.Errorf("%w: address %q: %v", wallet.ErrMalformedInput, s, err)
	}
	return pk, nil
}

// argOrStdin returns args[0], or the first line of stdin when no argument
// was given, so secrets need not appear in shell history.
func argOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) keygenCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new wallet and write it to the wallet path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.cfg.WalletPath); err == nil && !force {
				return fmt.Errorf("%s already exists; pass --force to overwrite", a.cfg.WalletPath)
			}
			key := wallet.New()
			if err := wallet.Save(a.cfg.WalletPath, key); err != nil {
				return err
			}
			a.logger().Info("wallet written", "path", a.cfg.WalletPath)
			fmt.Fprintf(cmd.OutOrStdout(), "You've generated a new Solana wallet: %s\n", key.PublicKey())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing wallet file")
	return cmd
}

func (a *app) airdropCmd() *cobra.Command {
	var amount float64
	cmd := &cobra.Command{
		Use:   "airdrop",
		Short: "Request devnet SOL from the faucet into the wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lamports, err := solToLamports(amount)
			if err != nil {
				return err
			}
			key, err := a.identity()
			if err != nil {
				return err
			}
			sig, err := a.client().RequestAirdrop(cmd.Context(), key.PublicKey(), lamports)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Success! Check out your TX here:\n%s\n", explorerURL(sig, a.cfg.RPCURL))
			return nil
		},
	}
	cmd.Flags().Float64Var(&amount, "sol", 2, "amount of SOL to request")
	return cmd
}

func (a *app) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Show the balance of an address, or of the wallet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var owner sol.PublicKey
			if len(args) == 1 {
				pk, err := parseAddress(args[0])
				if err != nil {
					return err
				}
				owner = pk
			} else {
				key, err := a.identity()
				if err != nil {
					return err
				}
				owner = key.PublicKey()
			}
			lamports, latency, err := a.client().GetBalance(cmd.Context(), owner)
			if err != nil {
				return err
			}
			a.logger().Debug("balance fetched", "latency", latency)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d lamports (%.9f SOL)\n", owner, lamports, types.LamportsToSol(lamports))
			return nil
		},
	}
}

func (a *app) transferCmd() *cobra.Command {
	var amount float64
	cmd := &cobra.Command{
		Use:   "transfer <to>",
		Short: "Send SOL from the wallet to an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			lamports, err := solToLamports(amount)
			if err != nil {
				return err
			}
			key, err := a.identity()
			if err != nil {
				return err
			}
			sig, err := a.client().Transfer(cmd.Context(), key, to, lamports)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Success! Check out your TX here:\n%s\n", explorerURL(sig, a.cfg.RPCURL))
			return nil
		},
	}
	cmd.Flags().Float64Var(&amount, "sol", 0.1, "amount of SOL to send")
	return cmd
}

func (a *app) sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep <to>",
		Short: "Send the wallet's entire balance, less the fee, to an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			key, err := a.identity()
			if err != nil {
				return err
			}
			res, err := a.client().Sweep(cmd.Context(), key, to)
			if err != nil {
				return err
			}
			a.logger().Info("swept wallet", "balance", res.Balance, "fee", res.Fee, "sent", res.Amount)
			fmt.Fprintf(cmd.OutOrStdout(), "Success! Check out your TX here:\n%s\n", explorerURL(res.Signature, a.cfg.RPCURL))
			return nil
		},
	}
}

func (a *app) toBase58Cmd() *cobra.Command {
	return &cobra.Command{
		Use:     "to-base58 [byte-list]",
		Short:   "Convert a keygen byte list such as [1,2,3] to base58",
		Example: "  prereq to-base58 '[1,2,3]'",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}
			b, err := wallet.ParseByteList(in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), wallet.EncodeBase58(b))
			return nil
		},
	}
}

func (a *app) toBytesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "to-bytes [base58]",
		Short:   "Convert a base58 string to a keygen byte list",
		Example: "  prereq to-bytes Ldp",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}
			b, err := wallet.DecodeBase58(in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), wallet.FormatByteList(b))
			return nil
		},
	}
}
