package cmd

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ftl/ais-nmea/api"
	"github.com/ftl/ais-nmea/com"
	"github.com/ftl/ais-nmea/message"
	"github.com/ftl/ais-nmea/publish"
	"github.com/ftl/ais-nmea/send"
	"github.com/ftl/ais-nmea/sentence"
)

const statsInterval = time.Minute

var errNoSession = errors.New("no connection to a transponder")

// currentSession forwards requests to the most recent session of the source.
type currentSession struct {
	mu      sync.RWMutex
	session *com.COM
}

func (s *currentSession) set(session *com.COM) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

func (s *currentSession) Send(ctx context.Context, request send.Request, timeout time.Duration) (sentence.Acknowledgement, error) {
	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()
	if session == nil || session.Closed() {
		return sentence.Acknowledgement{}, errNoSession
	}
	return session.Send(ctx, request, timeout)
}

// messageStats counts the received messages over all sessions.
type messageStats struct {
	mu     sync.Mutex
	counts map[int]int
}

func (s *messageStats) add(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[id]++
}

func (s *messageStats) Counts() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[int]int, len(s.counts))
	for id, count := range s.counts {
		result[id] = count
	}
	return result
}

func serveCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Receive AIS messages from the configured source and publish them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			log := logrus.NewEntry(env.log)

			sourceFilter, err := env.cfg.SourceFilter()
			if err != nil {
				return err
			}
			tag := env.cfg.Source.SourceTag()

			var publisher *publish.MQTT
			if env.cfg.MQTT.Enabled {
				mqttConfig := env.cfg.MQTT
				publisher, err = publish.Connect(publish.Options{
					Broker:      mqttConfig.Broker,
					ClientID:    mqttConfig.ClientID,
					Username:    mqttConfig.Username,
					Password:    mqttConfig.Password,
					TopicPrefix: mqttConfig.TopicPrefix,
					QoS:         mqttConfig.QoS,
					Retained:    mqttConfig.Retained,
				}, log.WithField("component", "mqtt"))
				if err != nil {
					return err
				}
				defer publisher.Close()
			}

			current := new(currentSession)
			stats := &messageStats{counts: make(map[int]int)}

			var wg sync.WaitGroup
			if env.cfg.API.Enabled {
				server := api.NewServer(env.cfg.API.Addr, log.WithField("component", "api"),
					api.WithSender(current, env.cfg.Send.TimeoutDuration()),
					api.WithStats(stats),
					api.WithTalker(env.cfg.Send.Talker),
				)
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := server.Run(ctx); err != nil {
						log.WithError(err).Error("API server failed")
						cancel()
					}
				}()
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				ticker := time.NewTicker(statsInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						log.WithField("counts", stats.Counts()).Info("messages received")
					}
				}
			}()

			onMessage := func(m message.Message, payload sentence.Payload) {
				stats.add(m.MessageHeader().ID)
				if !sourceFilter.Accept(m, &tag) {
					return
				}
				if publisher == nil {
					return
				}
				if err := publisher.Publish(m, payload); err != nil {
					log.WithError(err).Warn("cannot publish message")
				}
			}
			onError := func(err error, lines []string) {
				log.WithError(err).WithField("lines", lines).Debug("cannot decode")
			}

			err = env.runSource(ctx, current.set, com.WithMessageCallback(onMessage), com.WithErrorCallback(onError))
			cancel()
			wg.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
