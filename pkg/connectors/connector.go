// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package connectors

import "context"

// Connector is a long lived connection to an external store owned by main.
type Connector interface {
	Name() string
	Connect(ctx context.Context) error
	IsConnected(ctx context.Context) bool
	Disconnect(ctx context.Context) error
}
