// Package nats provides OpenTelemetry instrumentation for NATS JetStream publishing.
//
// Publish operations create producer spans following OTel messaging semantic
// conventions and inject the active trace context into message headers, so a
// consumer can continue the trace of the request that produced the message.
//
// # Publisher Usage
//
//	js, _ := jetstream.New(nc)
//	publisher := nats.NewPublisher(js, tel, nats.WithStream("USERS"))
//
//	// Traced publish - context propagated via headers
//	publisher.Publish(ctx, "users.created", data)
//
// # Event Client
//
// Connect wires the connection, stream and publisher from EventsConfig:
//
//	client, err := nats.Connect(ctx, cfg.Events, tel)
//	defer client.Close()
//	client.PublishEvent(ctx, userJSON)
package nats
