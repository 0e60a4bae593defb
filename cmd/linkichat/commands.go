package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brantatech/linkichat/internal/config"
)

// stateView is the slice of the server's state response the CLI displays.
type stateView struct {
	View    string `json:"view"`
	Profile *struct {
		Name              string              `json:"name"`
		Email             string              `json:"email"`
		IsTrained         bool                `json:"isTrained"`
		NetworkingHistory []networkingDisplay `json:"networkingHistory"`
	} `json:"profile"`
}

type networkingDisplay struct {
	ID           string   `json:"id"`
	Timestamp    int64    `json:"timestamp"`
	TargetName   string   `json:"targetName"`
	Context      string   `json:"context"`
	Icebreaker   string   `json:"icebreaker"`
	FollowUp     string   `json:"followUp"`
	TrustBuilder string   `json:"trustBuilder"`
	Sources      []string `json:"sources,omitempty"`
}

// --- login / logout ---

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and load the profile stored for that identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/login", map[string]string{"email": args[0]})
		if err != nil {
			return err
		}

		var st stateView
		if err := decodeJSON(resp, &st); err != nil {
			return err
		}

		if st.View == "ONBOARDING" {
			printSuccess("Signed in as %s", args[0])
			printStep("No trained profile yet — run: linkichat onboard --name \"Your Name\" --text \"...\"")
		} else {
			printSuccess("Welcome back, %s", st.Profile.Name)
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out of the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/logout", nil)
		if err != nil {
			return err
		}

		var st stateView
		if err := decodeJSON(resp, &st); err != nil {
			return err
		}

		printSuccess("Signed out")
		return nil
	},
}

// --- onboard ---

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Build your digital twin from profile text or a resume",
	Long: `Build your digital twin from profile text or a resume.

Examples:
  linkichat onboard --name "Ada Lovelace" --text "15 years shipping infrastructure..."
  linkichat onboard --name "Ada Lovelace" --file ./resume.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		text, _ := cmd.Flags().GetString("text")
		file, _ := cmd.Flags().GetString("file")

		if name == "" {
			return fmt.Errorf("--name is required")
		}
		if text == "" && file == "" {
			return fmt.Errorf("one of --text or --file is required")
		}

		req := map[string]any{"name": name}
		if text != "" {
			req["text"] = text
		}
		if file != "" {
			payload, err := filePayload(file)
			if err != nil {
				return err
			}
			req["file"] = payload
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Analyzing your profile...")
		resp, err := client.post(cmd.Context(), "/onboarding", req)
		if err != nil {
			return err
		}

		var st stateView
		if err := decodeJSON(resp, &st); err != nil {
			return err
		}

		printSuccess("Profile trained — welcome to the dashboard, %s", st.Profile.Name)
		return nil
	},
}

func init() {
	onboardCmd.Flags().String("name", "", "your display name")
	onboardCmd.Flags().String("text", "", "pasted profile or bio text")
	onboardCmd.Flags().String("file", "", "path to a resume (PDF or plain text)")
}

// filePayload reads a local file into the API's upload shape.
func filePayload(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	mimeType := "text/plain"
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		mimeType = "application/pdf"
	}
	return map[string]string{
		"name":     filepath.Base(path),
		"mimeType": mimeType,
		"data":     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// --- networking ---

var networkingCmd = &cobra.Command{
	Use:   "networking",
	Short: "Generate and manage networking strategies",
}

var networkingGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a relationship strategy for a target connection",
	Long: `Generate a relationship strategy for a target connection.

Examples:
  linkichat networking generate --text "Jane Cooper, VP Engineering at Acme"
  linkichat networking generate --url https://example.com/about-jane
  linkichat networking generate --file ./jane-bio.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		url, _ := cmd.Flags().GetString("url")
		file, _ := cmd.Flags().GetString("file")

		if text == "" && url == "" && file == "" {
			return fmt.Errorf("one of --text, --url, or --file is required")
		}

		req := map[string]any{}
		if text != "" {
			req["text"] = text
		}
		if url != "" {
			req["url"] = url
		}
		if file != "" {
			payload, err := filePayload(file)
			if err != nil {
				return err
			}
			req["file"] = payload
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Researching target and building strategy...")
		resp, err := client.post(cmd.Context(), "/networking", req)
		if err != nil {
			return err
		}

		var result networkingDisplay
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printNetworkingResult(result)
		printSuccess("Saved to networking history (%s)", result.ID)
		return nil
	},
}

var networkingHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved networking strategies, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/networking")
		if err != nil {
			return err
		}

		var history []networkingDisplay
		if err := decodeJSON(resp, &history); err != nil {
			return err
		}

		if len(history) == 0 {
			printStep("No saved strategies yet")
			return nil
		}
		for _, r := range history {
			fmt.Fprintf(os.Stdout, "%s  %s\n", r.ID, r.TargetName)
		}
		return nil
	},
}

var networkingDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a strategy from the networking history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/networking/"+args[0])
		if err != nil {
			return err
		}

		var st stateView
		if err := decodeJSON(resp, &st); err != nil {
			return err
		}

		printSuccess("Deleted %s", args[0])
		return nil
	},
}

func init() {
	networkingGenerateCmd.Flags().String("text", "", "pasted text about the target")
	networkingGenerateCmd.Flags().String("url", "", "public URL about the target")
	networkingGenerateCmd.Flags().String("file", "", "document about the target (PDF or plain text)")

	networkingCmd.AddCommand(networkingGenerateCmd)
	networkingCmd.AddCommand(networkingHistoryCmd)
	networkingCmd.AddCommand(networkingDeleteCmd)
}

func printNetworkingResult(r networkingDisplay) {
	printHeading("%s", r.TargetName)
	fmt.Fprintf(os.Stdout, "\n%s\n", r.Context)
	printHeading("\nIcebreaker")
	fmt.Fprintln(os.Stdout, r.Icebreaker)
	printHeading("\nFollow-up")
	fmt.Fprintln(os.Stdout, r.FollowUp)
	printHeading("\nTrust builder")
	fmt.Fprintln(os.Stdout, r.TrustBuilder)
	if len(r.Sources) > 0 {
		printHeading("\nSources")
		for _, s := range r.Sources {
			fmt.Fprintf(os.Stdout, "  %s\n", s)
		}
	}
}

// --- content ---

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Generate a post in your voice",
	Long: `Generate a post in your voice.

Frameworks:
  SYSTEM_REVEAL  — show the exact playbook behind a result
  REALITY_CHECK  — confront a comfortable lie your audience tells itself
  MINDSET_SHIFT  — reframe how your audience sees a familiar problem

Example:
  linkichat content --framework SYSTEM_REVEAL --topic "how we hire senior engineers"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		framework, _ := cmd.Flags().GetString("framework")
		topic, _ := cmd.Flags().GetString("topic")

		if framework == "" || topic == "" {
			return fmt.Errorf("--framework and --topic are required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Writing post...")
		resp, err := client.post(cmd.Context(), "/content", map[string]string{
			"framework": strings.ToUpper(framework),
			"topic":     topic,
		})
		if err != nil {
			return err
		}

		var post struct {
			PostBody          string `json:"postBody"`
			VisualDescription string `json:"visualDescription"`
		}
		if err := decodeJSON(resp, &post); err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, post.PostBody)
		printHeading("\nVisual concept")
		fmt.Fprintln(os.Stdout, post.VisualDescription)
		return nil
	},
}

func init() {
	contentCmd.Flags().String("framework", "", "content framework (SYSTEM_REVEAL, REALITY_CHECK, MINDSET_SHIFT)")
	contentCmd.Flags().String("topic", "", "what the post should be about")
}

// --- audit ---

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit your profile against top-creator patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Auditing profile...")
		resp, err := client.post(cmd.Context(), "/audit", nil)
		if err != nil {
			return err
		}

		var result struct {
			Report string `json:"report"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, result.Report)
		return nil
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show and edit the signed-in profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}

		var raw json.RawMessage
		if err := decodeJSON(resp, &raw); err != nil {
			return err
		}

		var pretty map[string]any
		if err := json.Unmarshal(raw, &pretty); err != nil {
			return err
		}
		out, err := json.MarshalIndent(pretty, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile fields",
	Long: `Update profile fields.

Examples:
  linkichat profile set --name "Ada Lovelace"
  linkichat profile set --text "Updated bio..."
  linkichat profile set --clear-avatar`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]any{}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			req["name"] = name
		}
		if cmd.Flags().Changed("text") {
			text, _ := cmd.Flags().GetString("text")
			req["rawText"] = text
		}
		if cmd.Flags().Changed("avatar") {
			avatar, _ := cmd.Flags().GetString("avatar")
			req["avatar"] = avatar
		}
		if clear, _ := cmd.Flags().GetBool("clear-avatar"); clear {
			req["avatar"] = ""
		}
		if len(req) == 0 {
			return fmt.Errorf("nothing to update; pass --name, --text, --avatar, or --clear-avatar")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.patch(cmd.Context(), "/profile", req)
		if err != nil {
			return err
		}

		var st stateView
		if err := decodeJSON(resp, &st); err != nil {
			return err
		}

		printSuccess("Profile updated")
		return nil
	},
}

func init() {
	profileSetCmd.Flags().String("name", "", "display name")
	profileSetCmd.Flags().String("text", "", "profile context text")
	profileSetCmd.Flags().String("avatar", "", "avatar image as a data URL")
	profileSetCmd.Flags().Bool("clear-avatar", false, "remove the stored avatar")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage linkichat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, ki := range config.ShowAll(cfg) {
			fmt.Fprintf(os.Stdout, "%-20s %-30s %s\n", ki.Key, ki.Value, ki.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return fmt.Errorf("%w\nvalid keys: %s", err, strings.Join(config.ValidKeys(), ", "))
		}
		printSuccess("Set %s = %s", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
