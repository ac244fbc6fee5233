package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/example/prereqkit/internal/pda"
	"github.com/example/prereqkit/internal/prereq"
	"github.com/example/prereqkit/internal/wallet"
	sol "github.com/gagliardetto/solana-go"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (a *app) deriveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "derive <seed>...",
		Short: "Derive a program address from seeds under --program",
		Long: `Derive a program address from seeds under --program.

Each seed is written kind:value, where kind is one of utf8, pubkey, base58
or bytes. A seed without a kind is taken as utf8.`,
		Example: "  prereq derive utf8:prereqs pubkey:<signer>",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			programs, err := a.cfg.Programs()
			if err != nil {
				return fmt.Errorf("%w: %v", wallet.ErrMalformedInput, err)
			}
			seeds, err := pda.ParseSeeds(args)
			if err != nil {
				return err
			}
			addr, bump, err := pda.Derive(seeds, programs.Program)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", addr, bump)
			return nil
		},
	}
}

func (a *app) previewCmd() *cobra.Command {
	var signerArg, mintArg string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the accounts and data of the submit_rs instruction without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var signer sol.PublicKey
			if signerArg != "" {
				pk, err := parseAddress(signerArg)
				if err != nil {
					return err
				}
				signer = pk
			} else {
				key, err := a.identity()
				if err != nil {
					return err
				}
				signer = key.PublicKey()
			}
			mint := wallet.New().PublicKey()
			if mintArg != "" {
				pk, err := parseAddress(mintArg)
				if err != nil {
					return err
				}
				mint = pk
			}

			svc, err := a.service(cmd.Context(), nil)
			if err != nil {
				return err
			}
			plan, err := svc.Preview(signer, mint)
			if err != nil {
				return err
			}
			return printPlan(cmd.OutOrStdout(), plan)
		},
	}
	cmd.Flags().StringVar(&signerArg, "signer", "", "signer address (defaults to the wallet)")
	cmd.Flags().StringVar(&mintArg, "mint", "", "mint address (defaults to a fresh one)")
	return cmd
}

var planRoles = []string{"signer", "prereqs", "mint", "collection", "authority", "mpl_core_program", "system_program"}

func printPlan(w io.Writer, plan prereq.Plan) error {
	data, err := plan.Instruction.Data()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "program: %s\n", plan.Instruction.ProgramID())
	fmt.Fprintf(w, "data:    %s\n", wallet.FormatByteList(data))
	fmt.Fprintf(w, "prereqs bump: %d, authority bump: %d\n", plan.PrereqsBump, plan.AuthorityBump)

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{"#", "Role", "Account", "Writable", "Signer"})
	for i, acct := range plan.Instruction.Accounts() {
		role := ""
		if i < len(planRoles) {
			role = planRoles[i]
		}
		table.Append([]string{
			strconv.Itoa(i),
			role,
			acct.PublicKey.String(),
			strconv.FormatBool(acct.IsWritable),
			strconv.FormatBool(acct.IsSigner),
		})
	}
	table.Render()
	return nil
}

func (a *app) initializeCmd() *cobra.Command {
	var github string
	cmd := &cobra.Command{
		Use:   "initialize",
		Short: "Register a GitHub handle with the prerequisite program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.identity()
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context(), a.client())
			if err != nil {
				return err
			}
			res, err := svc.Initialize(cmd.Context(), key, github)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Success! Check out your TX here:\n%s\n", explorerURL(res.Signature, a.cfg.RPCURL))
			return nil
		},
	}
	cmd.Flags().StringVar(&github, "github", "", "GitHub handle to register")
	_ = cmd.MarkFlagRequired("github")
	return cmd
}

func (a *app) submitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Submit the prerequisites, minting a fresh NFT into the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.identity()
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context(), a.client())
			if err != nil {
				return err
			}
			res, err := svc.Submit(cmd.Context(), key)
			if err != nil {
				return err
			}
			a.logger().Info("prerequisites submitted", "mint", res.Mint, "prereqs", res.PrereqsAccount)
			fmt.Fprintf(cmd.OutOrStdout(), "Success! Check out your TX here:\n%s\n", explorerURL(res.Signature, a.cfg.RPCURL))
			return nil
		},
	}
}

func (a *app) enrollCmd() *cobra.Command {
	var github string
	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Initialize then submit, skipping steps already done",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.identity()
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context(), a.client())
			if err != nil {
				return err
			}
			res, err := svc.Enroll(cmd.Context(), key, github)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.AlreadyInitialized {
				fmt.Fprintln(out, "initialize: account already initialized")
			} else {
				fmt.Fprintf(out, "initialize: %s\n", explorerURL(res.Initialize.Signature, a.cfg.RPCURL))
			}
			if res.AlreadySubmitted {
				fmt.Fprintln(out, "submit: prerequisites already submitted")
			} else {
				fmt.Fprintf(out, "submit: %s\n", explorerURL(res.Submit.Signature, a.cfg.RPCURL))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&github, "github", "", "GitHub handle to register")
	_ = cmd.MarkFlagRequired("github")
	return cmd
}
