package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// cli holds the state shared by all sub-commands after flag parsing.
type cli struct {
	configPath string
	verbose    bool

	cfg *Config
	enc *Encoder
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "nuxqr",
		Short: "Encode NUX effect chains into patch bytes and QR transport strings",
		Long: `nuxqr converts an effect chain (noise gate, compressor, drive, amp, cab,
modulation, delay, reverb, EQ) into the device's 64-byte patch format and the
decimal string that goes into a QR code. It can also decode such strings,
list the non-zero bytes of a patch, and serve all of this as MCP tools.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			l, err := newLogger(cfg.Logging, c.verbose)
			if err != nil {
				return err
			}
			logger = l
			c.cfg = cfg
			c.enc = NewEncoder(DefaultLayout(), WithPolicy(cfg.Encoder), WithLogger(logger))
			p := c.enc.Policy()
			logger.Debug("configuration loaded",
				zap.String("config", c.configPath),
				zap.String("out_of_range", string(p.OutOfRange)),
				zap.String("missing_blocks", string(p.MissingBlocks)))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "nuxqr.yaml", "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		c.defaultCmd(),
		c.encodeCmd(),
		c.debugCmd(),
		c.decodeCmd(),
		c.layoutCmd(),
		c.configCmd(),
		c.mcpCmd(),
	)
	return root
}

func (c *cli) defaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print the factory default chain as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), CreateDefaultChain())
		},
	}
}

func (c *cli) encodeCmd() *cobra.Command {
	var (
		set    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "encode [chain.json|-]",
		Short: "Encode a chain (default: the factory chain) into a transport string",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := c.loadChain(cmd, args, set)
			if err != nil {
				return err
			}
			patch, err := c.enc.Encode(chain)
			if err != nil {
				return fmt.Errorf("failed to encode chain: %w", err)
			}
			logger.Info("encoded chain", zap.Int("bytes", patch.Len()), zap.Any("blocks", chain.Keys()))

			out := cmd.OutOrStdout()
			switch format {
			case "transport":
				_, err = fmt.Fprintln(out, TransportString(patch))
			case "bytes":
				_, err = fmt.Fprintln(out, patch.Bytes())
			case "json":
				err = writeJSON(out, encodeResult{Length: patch.Len(), Transport: TransportString(patch), Bytes: patch})
			default:
				err = fmt.Errorf("unknown format %q (want transport, bytes or json)", format)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&set, "set", "", `assignments applied before encoding, e.g. "drive.enabled=on drive.gain=50"`)
	cmd.Flags().StringVarP(&format, "format", "f", "transport", "output format: transport, bytes or json")
	return cmd
}

func (c *cli) debugCmd() *cobra.Command {
	var (
		set    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "debug [chain.json|-]",
		Short: "List the non-zero patch bytes of a chain with their field names",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := c.loadChain(cmd, args, set)
			if err != nil {
				return err
			}
			patch, err := c.enc.Encode(chain)
			if err != nil {
				return fmt.Errorf("failed to encode chain: %w", err)
			}
			report, err := c.enc.Debug(chain)
			if err != nil {
				return fmt.Errorf("failed to encode chain: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderDebug(patch, report))
			return err
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "assignments applied before encoding")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the listing as JSON")
	return cmd
}

func (c *cli) decodeCmd() *cobra.Command {
	var withDebug bool
	cmd := &cobra.Command{
		Use:   "decode <transport>",
		Short: "Decode a transport string back into a chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := ParseTransportString(args[0])
			if err != nil {
				return err
			}
			chain, err := c.enc.Decode(patch)
			if err != nil {
				return fmt.Errorf("failed to decode patch: %w", err)
			}
			if err := writeJSON(cmd.OutOrStdout(), chain); err != nil {
				return err
			}
			if !withDebug {
				return nil
			}
			report, err := c.enc.DebugPatch(patch)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderDebug(patch, report))
			return err
		},
	}
	cmd.Flags().BoolVar(&withDebug, "debug", false, "also list the non-zero bytes")
	return cmd
}

func (c *cli) layoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Describe the patch byte layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := c.enc.Policy()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n%s",
				titleStyle.Render("Patch layout"),
				helpStyle.Render(fmt.Sprintf("policy: out_of_range=%s missing_blocks=%s", p.OutOfRange, p.MissingBlocks)),
				describeLayout(c.enc.Layout()))
			return err
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration, or write it to the --config path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if write {
				if err := c.cfg.Save(c.configPath); err != nil {
					return err
				}
				logger.Info("configuration written", zap.String("config", c.configPath))
				return nil
			}
			data, err := yaml.Marshal(c.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write the effective configuration to the --config path")
	return cmd
}

func (c *cli) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the encoder as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(c.cfg, c.enc, logger)
		},
	}
}

// loadChain picks the chain for encode/debug: the file or stdin named by the
// argument, otherwise the factory chain; then applies the --set assignments.
func (c *cli) loadChain(cmd *cobra.Command, args []string, set string) (Chain, error) {
	chain := CreateDefaultChain()
	if len(args) == 1 {
		loaded, err := readChain(args[0], cmd.InOrStdin())
		if err != nil {
			return Chain{}, err
		}
		chain = loaded
	}
	if set == "" {
		return chain, nil
	}
	as, err := ParseAssignments(set)
	if err != nil {
		return Chain{}, err
	}
	return c.enc.Layout().Apply(chain, as)
}
