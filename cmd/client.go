package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/USA-RedDragon/contract-relay/internal/client"
	"github.com/USA-RedDragon/contract-relay/internal/config"
	"github.com/USA-RedDragon/contract-relay/internal/contract"
	"github.com/spf13/cobra"
)

const (
	valueFlag    = "value"
	walletIDFlag = "wallet-id"
	tokenFlag    = "token"
)

func newReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "read",
		Short:         "Print the value stored in the contract",
		Args:          cobra.NoArgs,
		RunE:          runRead,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newWriteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "write",
		Short:         "Store a value through the relay and read it back",
		Args:          cobra.NoArgs,
		RunE:          runWrite,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().String(valueFlag, "", "Unsigned integer to store")
	cmd.Flags().String(walletIDFlag, "", "Privy wallet ID to send from")
	cmd.Flags().String(tokenFlag, "", "Privy access token, when the relay requires one")
	_ = cmd.MarkFlagRequired(valueFlag)
	return cmd
}

func loadClientConfig(cmd *cobra.Command) (*config.Config, *contract.Reader, func(), error) {
	config, err := config.LoadConfig(cmd)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.ValidateContract(); err != nil {
		return nil, nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	ethClient, err := contract.Dial(cmd.Context(), config.Chain.RPCURL)
	if err != nil {
		return nil, nil, nil, err
	}
	address, err := contract.ParseAddress(config.Contract.Address)
	if err != nil {
		ethClient.Close()
		return nil, nil, nil, err
	}
	return config, contract.NewReader(ethClient, address), ethClient.Close, nil
}

func runRead(cmd *cobra.Command, _ []string) error {
	_, reader, closeClient, err := loadClientConfig(cmd)
	if err != nil {
		return err
	}
	defer closeClient()

	value, err := reader.Retrieve(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value.String())
	return nil
}

func runWrite(cmd *cobra.Command, _ []string) error {
	rawValue, err := cmd.Flags().GetString(valueFlag)
	if err != nil {
		return err
	}
	value, err := contract.ParseValue(json.Number(rawValue))
	if err != nil {
		return fmt.Errorf("invalid --%s %q: %w", valueFlag, rawValue, err)
	}
	walletID, err := cmd.Flags().GetString(walletIDFlag)
	if err != nil {
		return err
	}
	token, err := cmd.Flags().GetString(tokenFlag)
	if err != nil {
		return err
	}

	cfg, reader, closeClient, err := loadClientConfig(cmd)
	if err != nil {
		return err
	}
	defer closeClient()
	if cfg.HTTP.BackendURL == "" {
		return config.ErrBackendURLRequired
	}

	view := client.NewView(reader, client.NewHTTPSubmitter(cfg.HTTP.BackendURL, token), cfg.Chain.ExplorerURL)
	out := cmd.OutOrStdout()

	if err := view.Mount(cmd.Context()); err != nil {
		slog.Warn("Failed to read contract", "error", err)
	} else {
		fmt.Fprintf(out, "Current value: %s\n", view.Snapshot().Value)
	}

	err = view.Submit(cmd.Context(), value, walletID)
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	snapshot := view.Snapshot()
	fmt.Fprintf(out, "Transaction hash: %s\n", snapshot.Hash)
	fmt.Fprintf(out, "Explorer: %s\n", view.ExplorerLink())
	if snapshot.Value != nil {
		fmt.Fprintf(out, "New value: %s\n", snapshot.Value)
	}
	return nil
}
