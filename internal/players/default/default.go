// Package _default registers the default scorers and searchers that can be included in any
// front-end for othelloGo.
//
// Currently, it includes the linear model, alpha-beta pruning and MCTS. The GoMLX models are registered
// by importing the package internal/ai/gomlx.
package _default

import (
	"github.com/janpfeifer/othelloGo/internal/ai/linear"
	"github.com/janpfeifer/othelloGo/internal/players"
	"github.com/janpfeifer/othelloGo/internal/searchers/alphabeta"
	"github.com/janpfeifer/othelloGo/internal/searchers/mcts"
)

func init() {
	players.RegisteredScorers = append(players.RegisteredScorers, linear.NewFromParams)
	players.RegisteredSearchers = append(players.RegisteredSearchers, alphabeta.NewFromParams, mcts.NewFromParams)
}
