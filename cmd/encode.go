package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/api"
	"github.com/ftl/ais-nmea/sentence"
)

type textFlags struct {
	source      string
	destination string
	sequence    int
	channel     string
	retransmit  bool
}

func (f *textFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "mmsi", "", "MMSI of the sending station")
	cmd.Flags().StringVar(&f.destination, "to", "", "MMSI of the receiving station, sends a broadcast if empty")
	cmd.Flags().IntVar(&f.sequence, "seq", 0, "Sequence number 0-3")
	cmd.Flags().StringVar(&f.channel, "channel", "", "Channel A, B or AB")
	cmd.Flags().BoolVar(&f.retransmit, "retransmit", false, "Request retransmission of an addressed message")
}

func (f *textFlags) request(args []string, format string) (api.TextRequest, error) {
	source, err := ais.ParseMMSI(f.source)
	if err != nil {
		return api.TextRequest{}, fmt.Errorf("invalid source MMSI: %w", err)
	}
	destination, err := ais.ParseMMSI(f.destination)
	if err != nil {
		return api.TextRequest{}, fmt.Errorf("invalid destination MMSI: %w", err)
	}
	result := api.TextRequest{
		Type:        14,
		Source:      source,
		Destination: destination,
		Sequence:    f.sequence,
		Retransmit:  f.retransmit,
		Channel:     strings.ToUpper(f.channel),
		Format:      format,
		Text:        strings.Join(args, " "),
	}
	if destination != ais.Broadcast {
		result.Type = 12
	}
	return result, nil
}

func encodeCmd(env *environment) *cobra.Command {
	var flags textFlags
	var forSending bool
	cmd := &cobra.Command{
		Use:   "encode [text...]",
		Short: "Encode a safety related text message into NMEA sentences",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := api.FormatVDM
			if forSending {
				format = api.FormatSend
			}
			request, err := flags.request(args, format)
			if err != nil {
				return err
			}

			var sentences []string
			if forSending {
				sendRequest, err := request.SendRequest()
				if err != nil {
					return err
				}
				sentences, err = sendRequest.Sentences(env.cfg.Send.Talker)
				if err != nil {
					return err
				}
			} else {
				channel := request.Channel
				if channel == "" {
					channel = "A"
				}
				if channel != "A" && channel != "B" {
					return fmt.Errorf("invalid channel %q", request.Channel)
				}
				sentences, err = request.Sentences(sentence.NewVDMFragmenter(env.cfg.Send.Talker, channel))
				if err != nil {
					return err
				}
			}

			for _, line := range sentences {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&forSending, "abm", false, "Encode ABM or BBM sentences for a transponder instead of VDM sentences")
	return cmd
}
