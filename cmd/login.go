package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/desertthunder/oauthcap/internal/server"
	"github.com/desertthunder/oauthcap/internal/services"
	"github.com/desertthunder/oauthcap/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const loginTimeout = 2 * time.Minute

// tokenSummary is the printable part of an [oauth2.Token].
type tokenSummary struct {
	Provider     string    `json:"provider"`
	TokenType    string    `json:"token_type"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
	Scope        any       `json:"scope,omitempty"`
}

// Login performs the authorization code flow with PKCE against a configured provider.
//
// Starts a listener on the provider's redirect port, opens the browser for user authorization,
// and exchanges the captured code for tokens.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	name := cmd.String("provider")

	provider, err := config.Provider(name)
	if err != nil {
		return err
	}

	port := cmd.Int("port")
	if port == 0 {
		port = provider.RedirectPort
	}
	if port == 0 && len(config.Server.Ports) > 0 {
		port = config.Server.Ports[0]
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%w: provider %s has no usable redirect_port", shared.ErrInvalidConfig, name)
	}

	client := services.NewOAuthClient(name, provider, config.RedirectURL(name, port), r.httpClient)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	opener := shared.OpenBrowser
	if cmd.Bool("no-browser") {
		opener = nil
	}

	token, err := r.doOAuth(ctx, client, uint16(port), cmd.Duration("timeout"), opener)
	if err != nil {
		return err
	}

	summary := tokenSummary{
		Provider:     name,
		TokenType:    token.Type(),
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		Scope:        token.Extra("scope"),
	}

	if cmd.Bool("json") {
		return r.writeJSON(summary, true)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlainHeader(fmt.Sprintf("%s token", name))
	r.writePlain("Type:          %s\n", summary.TokenType)
	r.writePlain("Access token:  %s\n", summary.AccessToken)
	if summary.RefreshToken != "" {
		r.writePlain("Refresh token: %s\n", summary.RefreshToken)
	}
	r.writePlain("Expires:       %s\n", expiry(summary.Expiry))
	return nil
}

// doOAuth runs one authorization attempt and returns the exchanged token.
//
// Callbacks for other providers and callbacks whose state does not match the session are ignored,
// so a stray or forged redirect cannot end the attempt. open may be nil, in which case the URL is printed.
func (r *Runner) doOAuth(ctx context.Context, client *services.OAuthClient, port uint16, timeout time.Duration, open func(string) error) (*oauth2.Token, error) {
	if timeout <= 0 {
		timeout = loginTimeout
	}

	session, err := services.NewSession(client.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	feed, unsubscribe := r.bus.Subscribe(server.CallbackEvent, 8)
	defer unsubscribe()

	registry := r.newRegistry()
	defer registry.Close()

	if err := registry.Start(port); err != nil {
		return nil, err
	}
	r.logger.Infof("waiting for %s redirect at %v", client.Name(), client.RedirectURL())

	authURL := client.AuthURL(session)
	if open == nil {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for %s authorization...\n", client.Name())
		if err := open(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var code string
	for code == "" {
		select {
		case ev, ok := <-feed:
			if !ok {
				return nil, fmt.Errorf("%w: event feed closed", shared.ErrAuthFailed)
			}
			p, ok := ev.Payload.(server.Payload)
			if !ok || !session.Matches(p) {
				r.logger.Debug("ignoring callback", "event", ev.ID)
				continue
			}
			r.record(p)

			code, err = session.Verify(p)
			if errors.Is(err, shared.ErrStateMismatch) {
				r.logger.Warn("ignoring callback with mismatched state", "provider", p.Provider)
				continue
			}
			if err != nil {
				return nil, err
			}
		case <-timer.C:
			return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := registry.Stop(port); err != nil {
		r.logger.Warn("error stopping listener", "port", port, "error", err)
	}

	return client.Exchange(ctx, session, code)
}
