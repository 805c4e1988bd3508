// Copyright (c) Microsoft. All rights reserved.

// Package redisstore provides a Redis-backed [agentkit.MessageStore],
// suitable for conversation state that must survive process restarts or
// be shared across instances.
//
// Each conversation is a Redis list of JSON-encoded messages; appends use
// RPUSH and reads use LRANGE, so stored order is exactly append order.
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := redisstore.New(client, "conv-42",
//	    redisstore.WithTTL(24*time.Hour),
//	)
//	session := agentkit.NewSession(agentkit.WithSessionStore(store))
//
// For agents that should open a fresh conversation per session, use
// [Factory] with [agentkit.WithMessageStoreFactory]:
//
//	agent, err := agentkit.NewAgent("assistant", "You are helpful.",
//	    agentkit.WithChatClient(client),
//	    agentkit.WithMessageStoreFactory(redisstore.Factory(rdb)),
//	)
package redisstore
