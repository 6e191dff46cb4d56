// Package bus provides the publish/subscribe transport the state machines use
// to talk to the robot.
//
// A Bus moves Message envelopes (JSON payload plus a type tag) over named
// channels. Four transports are available and selected through
// config.BusConfig:
//
//   - memory: in-process fan-out, used by tests and local runs
//   - nats: core NATS subjects
//   - redis: Redis pub/sub
//   - amqp: RabbitMQ fanout exchanges
//
// Receive has subscribe-once semantics: it subscribes, waits for a single
// message or the timeout, and unsubscribes. Delivery is at-most-once.
//
//	b, err := bus.New(ctx, config.DefaultBusConfig(), nil)
//	msg, _ := bus.NewMessage("UserCommand", map[string]string{"command": "start"})
//	err = b.Publish(ctx, "pepper_imitation/cmd_user", msg)
package bus
