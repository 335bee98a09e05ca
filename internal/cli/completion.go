package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for portlayout.

To load completions:

Bash:
  $ source <(portlayout completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ portlayout completion bash > /etc/bash_completion.d/portlayout
  # macOS:
  $ portlayout completion bash > $(brew --prefix)/etc/bash_completion.d/portlayout

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ portlayout completion zsh > "${fpath[1]}/_portlayout"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ portlayout completion fish | source

  # To load completions for each session, execute once:
  $ portlayout completion fish > ~/.config/fish/completions/portlayout.fish

PowerShell:
  PS> portlayout completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> portlayout completion powershell > portlayout.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
