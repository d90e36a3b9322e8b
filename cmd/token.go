package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/collab-matcher/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development bearer token signed with the auth secret",
	Run: func(cmd *cobra.Command, _ []string) {
		if err := issueToken(cmd); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("uid", "", "user id placed in the token subject")
	tokenCmd.Flags().String("email", "", "email claim")
	tokenCmd.Flags().String("name", "", "display name claim")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default auth.token-ttl)")
	tokenCmd.Flags().StringP("output", "o", "", "write the token to this file instead of stdout")

	tokenCmd.MarkFlagRequired("uid")
}

func issueToken(cmd *cobra.Command) error {
	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	verifier, err := newVerifier(config.Auth)
	if err != nil {
		return err
	}

	uid, _ := cmd.Flags().GetString("uid")
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		ttl = viper.GetDuration("auth.token-ttl")
	}

	token, err := verifier.Issue(auth.Identity{UID: uid, Email: email, Name: name}, ttl, time.Now())
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		fmt.Println(token)
		return nil
	}

	if err := os.WriteFile(output, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	fmt.Printf("token for %s written to %s (expires in %s)\n", uid, output, ttl)
	return nil
}
