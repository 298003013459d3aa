package main

import (
	"fmt"

	"github.com/spf13/cobra"

	univerify "github.com/univerify/univerify/sdk/go"
)

func loginCmd() *cobra.Command {
	var req univerify.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a wallet signature",
		Long: `Log in to UniVerify by signing the login message with your wallet.

With UNIVERIFY_WALLET_KEY set the message is signed locally. Otherwise pass a
signature produced by an external wallet.

Examples:
  univerify login
  univerify login --address 0x... --message "..." --signature 0x...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Client.Login(cmd.Context(), req)
			if err != nil {
				return err
			}

			printUser(cmd, "Logged in", &result.User)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.WalletAddress, "address", "", "Wallet address (default: address of UNIVERIFY_WALLET_KEY)")
	cmd.Flags().StringVar(&req.Message, "message", "", "Signed login message")
	cmd.Flags().StringVar(&req.Signature, "signature", "", "Signature of the login message")

	return cmd
}

func signupCmd() *cobra.Command {
	var req univerify.SignupRequest

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a wallet with a name and email",
		Long: `Register a new UniVerify account for your wallet.

Examples:
  univerify signup --name "Ada Lovelace" --email ada@example.edu`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Client.Signup(cmd.Context(), req)
			if err != nil {
				return err
			}

			printUser(cmd, "Signed up", &result.User)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.WalletAddress, "address", "", "Wallet address (default: address of UNIVERIFY_WALLET_KEY)")
	cmd.Flags().StringVar(&req.Message, "message", "", "Signed login message")
	cmd.Flags().StringVar(&req.Signature, "signature", "", "Signature of the login message")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			session := a.Session()
			if session.Token() == "" {
				fmt.Fprintln(out, "Not logged in.")
				if addr := session.WalletAddress(); addr != "" {
					fmt.Fprintf(out, "%-8s %s\n", "Wallet:", addr)
				}
				return nil
			}

			user := session.User()
			if user == nil {
				user = &univerify.User{}
			}
			user.WalletAddress = session.WalletAddress()
			printUser(cmd, "Logged in", user)
			return nil
		},
	}
}

func printUser(cmd *cobra.Command, title string, user *univerify.User) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, rule(50))
	if user.Name != "" {
		fmt.Fprintf(out, "%-8s %s\n", "Name:", user.Name)
	}
	if user.Email != "" {
		fmt.Fprintf(out, "%-8s %s\n", "Email:", user.Email)
	}
	if user.WalletAddress != "" {
		fmt.Fprintf(out, "%-8s %s\n", "Wallet:", user.WalletAddress)
	}
	if user.ID != "" {
		fmt.Fprintf(out, "%-8s %s\n", "User ID:", user.ID)
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the backend health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			status, err := a.Client.Health(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-9s %s\n", "Backend:", a.Client.BaseURL())
			fmt.Fprintf(out, "%-9s %s\n", "Status:", status.Status)
			if status.Version != "" {
				fmt.Fprintf(out, "%-9s %s\n", "Version:", status.Version)
			}
			if !status.Healthy() {
				return fmt.Errorf("backend is not healthy (status %q)", status.Status)
			}
			return nil
		},
	}
}
