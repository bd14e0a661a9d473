package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

// Bootstrap loads the stored device session or creates one on first run
// (identity generation is the collaborator's job), then binds the gateway to
// it. The stored relay endpoint is re-applied on every load by Init.
func (g *Gateway) Bootstrap(ctx context.Context, defaults domain.EndpointConfig, localTitle string) (*domain.Identity, error) {
	session, err := g.store.GetIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if session == nil {
		serialized, err := g.msgr.CreateIdentity(ctx)
		if err != nil {
			return nil, fmt.Errorf("create identity: %w", err)
		}
		session = &domain.Identity{
			Serialized: serialized,
			Profile:    domain.Profile{PeerID: domain.SelfSender, Title: localTitle},
			Endpoint:   defaults,
			CreatedAt:  time.Now().UnixMilli(),
		}
		if err := g.store.SetIdentity(ctx, session); err != nil {
			return nil, fmt.Errorf("persist identity: %w", err)
		}
		g.log.Info("created device identity")
	}

	if err := g.Init(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Session returns the bound device session, or nil before Init.
func (g *Gateway) Session() *domain.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// UpdateEndpoint persists a new relay endpoint into the identity record and
// re-applies it to the collaborator.
func (g *Gateway) UpdateEndpoint(ctx context.Context, ep domain.EndpointConfig) error {
	g.mu.Lock()
	session := g.session
	g.mu.Unlock()
	if session == nil {
		return domain.ErrGatewayNotInitialized
	}

	session.Endpoint = ep
	if err := g.store.SetIdentity(ctx, session); err != nil {
		return fmt.Errorf("persist endpoint: %w", err)
	}
	if err := g.msgr.SetEndpoint(ep); err != nil {
		return fmt.Errorf("apply endpoint: %w", err)
	}
	return nil
}

// UpdateLocalProfile persists the local profile into the identity record.
func (g *Gateway) UpdateLocalProfile(ctx context.Context, p domain.Profile) error {
	g.mu.Lock()
	session := g.session
	g.mu.Unlock()
	if session == nil {
		return domain.ErrGatewayNotInitialized
	}

	p.PeerID = domain.SelfSender
	session.Profile = p
	if err := g.store.SetIdentity(ctx, session); err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}
