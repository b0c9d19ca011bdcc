package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/echod/pkg/cli/internal/output"
	"github.com/getmockd/echod/pkg/cli/internal/parse"
	"github.com/getmockd/echod/pkg/client"
	"github.com/getmockd/echod/pkg/logging"
	"github.com/getmockd/echod/pkg/message"
)

const defaultSendTimeout = 5 * time.Second

var (
	sendAddress string
	sendContent string
	sendAdd     []int32
	sendTimeout time.Duration
	sendVerbose bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one message to an echod server and print the reply",
	Example: `  # Echo a string
  echod send --content "Hello, server!"

  # Ask the server to add two numbers
  echod send --add 40,2 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := sendMessage(cmd)
		if err != nil {
			return err
		}

		host, port, err := parse.HostPort(sendAddress)
		if err != nil {
			return err
		}

		c := client.New(host, port, sendTimeout)
		if sendVerbose {
			c.SetLogger(logging.New(logging.Config{
				Level:  logging.LevelDebug,
				Format: logging.FormatText,
				Output: cmd.ErrOrStderr(),
			}))
		}

		if err := c.Connect(); err != nil {
			return fmt.Errorf("connecting to %s: %w", c.Address(), err)
		}
		defer c.Disconnect()

		if err := c.Send(msg); err != nil {
			return fmt.Errorf("sending: %w", err)
		}
		reply, err := c.Receive()
		if err != nil {
			return fmt.Errorf("receiving: %w", err)
		}

		return printReply(cmd, reply)
	},
}

func init() {
	f := sendCmd.Flags()
	f.StringVarP(&sendAddress, "addr", "a", "localhost:8080", "Server address (host:port)")
	f.StringVar(&sendContent, "content", "Hello, server!", "Text to echo")
	f.Int32SliceVar(&sendAdd, "add", nil, "Send an add request for two numbers, e.g. --add 1,2")
	f.DurationVar(&sendTimeout, "timeout", defaultSendTimeout, "Dial and read timeout")
	f.BoolVarP(&sendVerbose, "verbose", "v", false, "Log client activity to stderr")
	sendCmd.MarkFlagsMutuallyExclusive("content", "add")
	rootCmd.AddCommand(sendCmd)
}

// sendMessage builds the envelope described by the flags.
func sendMessage(cmd *cobra.Command) (message.ClientMessage, error) {
	if !cmd.Flags().Changed("add") {
		return message.NewEcho(sendContent), nil
	}
	if len(sendAdd) != 2 {
		return message.ClientMessage{}, fmt.Errorf("--add takes exactly two numbers, got %d", len(sendAdd))
	}
	return message.NewAdd(sendAdd[0], sendAdd[1]), nil
}

func printReply(cmd *cobra.Command, reply message.ServerMessage) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		return output.JSON(out, reply)
	}

	switch reply.Kind() {
	case message.KindEcho:
		fmt.Fprintln(out, reply.EchoMessage.Content)
	case message.KindAddResponse:
		fmt.Fprintln(out, reply.AddResponse.Result)
	default:
		output.Warn(cmd.ErrOrStderr(), "server sent an empty reply")
	}
	return nil
}
