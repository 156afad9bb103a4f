package cmd

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ftl/ais-nmea/com"
	"github.com/ftl/ais-nmea/message"
	"github.com/ftl/ais-nmea/publish"
	"github.com/ftl/ais-nmea/sentence"
)

func decodeCmd(env *environment) *cobra.Command {
	var filterDefinition string
	cmd := &cobra.Command{
		Use:   "decode [file...]",
		Short: "Decode NMEA sentences from files or stdin into JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("filter") {
				env.cfg.Filter.Definition = filterDefinition
			}
			sourceFilter, err := env.cfg.SourceFilter()
			if err != nil {
				return err
			}
			tag := env.cfg.Source.SourceTag()
			encoder := json.NewEncoder(cmd.OutOrStdout())

			onMessage := func(m message.Message, payload sentence.Payload) {
				if !sourceFilter.Accept(m, &tag) {
					return
				}
				err := encoder.Encode(publish.Record{
					Type:      message.TypeName(m),
					Received:  time.Now().UTC(),
					Channel:   payload.Channel,
					Sentences: payload.Sentences,
					Message:   m,
				})
				if err != nil {
					env.log.WithError(err).Error("cannot write message")
				}
			}
			onError := func(err error, lines []string) {
				env.log.WithError(err).WithField("lines", lines).Warn("cannot decode")
			}

			if len(args) == 0 {
				args = []string{"-"}
			}
			for _, name := range args {
				if err := env.decodeInput(cmd, name, com.WithMessageCallback(onMessage), com.WithErrorCallback(onError)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filterDefinition, "filter", "", "Source filter, e.g. country=DK,targetCountry=DE")
	return cmd
}

func (e *environment) decodeInput(cmd *cobra.Command, name string, options ...com.Option) error {
	var input io.Reader
	if name == "-" {
		input = cmd.InOrStdin()
	} else {
		file, err := os.Open(name)
		if err != nil {
			return err
		}
		defer file.Close()
		input = file
	}

	session := e.newSession(readOnly{input}, options...)
	<-session.Done()
	e.log.WithFields(logrus.Fields{
		"input":  name,
		"counts": session.CountSummary(),
	}).Info("input decoded")
	return nil
}
