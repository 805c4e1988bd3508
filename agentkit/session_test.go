// Copyright (c) Microsoft. All rights reserved.

package agentkit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/microsoft/agentkit/agentkit"
)

func TestSession_DualMode_ServiceManaged(t *testing.T) {
	session := agentkit.NewSession()

	if err := session.SetServiceID("thread-abc"); err != nil {
		t.Fatalf("set service id: %v", err)
	}
	if session.ServiceID() != "thread-abc" {
		t.Errorf("serviceID = %q", session.ServiceID())
	}

	// Once service-managed, local mode is locked out.
	err := session.SetStore(agentkit.NewInMemoryStore())
	if !errors.Is(err, agentkit.ErrSessionModeLocked) {
		t.Errorf("error = %v, want ErrSessionModeLocked", err)
	}
}

func TestSession_DualMode_LocallyManaged(t *testing.T) {
	session := agentkit.NewSession()

	if err := session.SetStore(agentkit.NewInMemoryStore()); err != nil {
		t.Fatalf("set store: %v", err)
	}
	if session.Store() == nil {
		t.Error("store not set")
	}

	// Once locally managed, service mode is locked out.
	err := session.SetServiceID("thread-abc")
	if !errors.Is(err, agentkit.ErrSessionModeLocked) {
		t.Errorf("error = %v, want ErrSessionModeLocked", err)
	}
}

func TestSession_UniqueIDs(t *testing.T) {
	a := agentkit.NewSession()
	b := agentkit.NewSession()
	if a.ID() == "" {
		t.Error("session ID is empty")
	}
	if a.ID() == b.ID() {
		t.Error("two sessions share an ID")
	}
}

func TestInMemoryStore(t *testing.T) {
	store := agentkit.NewInMemoryStore()
	ctx := context.Background()

	msgs, err := store.ListMessages(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("fresh store has %d messages", len(msgs))
	}

	if err := store.AddMessages(ctx, []agentkit.Message{
		agentkit.NewUserMessage("one"),
		agentkit.NewAssistantMessage("two"),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	msgs, err = store.ListMessages(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Text() != "one" || msgs[1].Text() != "two" {
		t.Errorf("messages = %+v", msgs)
	}

	// Returned slice is a copy; appending to it must not affect the store.
	_ = append(msgs, agentkit.NewUserMessage("three"))
	again, _ := store.ListMessages(ctx)
	if len(again) != 2 {
		t.Errorf("store affected by caller append: %d messages", len(again))
	}
}

func TestSession_Serialize(t *testing.T) {
	session := agentkit.NewSession(agentkit.WithSessionStore(agentkit.NewInMemoryStore()))

	store := session.Store()
	if err := store.AddMessages(context.Background(), []agentkit.Message{
		agentkit.NewUserMessage("persist me"),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	state, err := session.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if state["id"] != session.ID() {
		t.Errorf("state id = %v", state["id"])
	}
	if _, ok := state["store"]; !ok {
		t.Error("state missing store")
	}
}

func TestSession_SerializeServiceManaged(t *testing.T) {
	session := agentkit.NewSession()
	if err := session.SetServiceID("thread-1"); err != nil {
		t.Fatalf("set service id: %v", err)
	}

	state, err := session.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if state["serviceId"] != "thread-1" {
		t.Errorf("serviceId = %v", state["serviceId"])
	}
	if _, ok := state["store"]; ok {
		t.Error("service-managed session should not serialize a store")
	}
}
