package state

import (
	"encoding/gob"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Save versions: over time new fields may be added.
const (
	MatchVersionActionsAndPolicies = iota + 1
)

// Encoder is any type of encoder -- implemented by gob.Encoder, json.Encoder
type Encoder interface {
	// Encode v or return an error.
	Encode(v any) error
}

// EncodeMatch will "save" (encode) the match for future reconstruction.
// The policies (one per action, each over the fixed action space) are optional and used for training.
func EncodeMatch(enc Encoder, size int, actions []Action, policies [][]float32) error {
	if err := enc.Encode(MatchVersionActionsAndPolicies); err != nil {
		return errors.Wrapf(err, "failed to encode match's version")
	}
	if err := enc.Encode(size); err != nil {
		return errors.Wrapf(err, "failed to encode match's board size")
	}
	if err := enc.Encode(actions); err != nil {
		return errors.Wrapf(err, "failed to encode match's actions")
	}
	if err := enc.Encode(policies); err != nil {
		return errors.Wrapf(err, "failed to encode match's policies")
	}
	return nil
}

// LoadMatch restores a match encoded with EncodeMatch, and replays the actions to validate them.
// It returns the initial board, the actions, the policies (possibly nil) and all the boards of the
// match (len(actions)+1 of them).
func LoadMatch(dec *gob.Decoder) (initial *Board, actions []Action, policies [][]float32, boards []*Board, err error) {
	var version, size int
	if err = dec.Decode(&version); err != nil {
		return
	}
	if version != MatchVersionActionsAndPolicies {
		err = errors.Errorf("unknown match save file version %d", version)
		return
	}
	if err = dec.Decode(&size); err != nil {
		err = errors.Wrapf(err, "failed to decode match's board size")
		return
	}
	if size < MinBoardSize || size > MaxBoardSize || size%2 != 0 {
		err = errors.Errorf("invalid board size %d in match file", size)
		return
	}
	if err = dec.Decode(&actions); err != nil {
		err = errors.Wrapf(err, "failed to decode match's actions")
		return
	}
	if err = dec.Decode(&policies); err != nil {
		err = errors.Wrapf(err, "failed to decode match's policies")
		return
	}
	if len(policies) != 0 && len(policies) != len(actions) {
		err = errors.Errorf("match has %d actions but %d policies", len(actions), len(policies))
		return
	}

	initial = NewBoard(size)
	boards = make([]*Board, 0, len(actions)+1)
	boards = append(boards, initial)
	board := initial
	for ii, action := range actions {
		if !board.IsValid(action) {
			err = errors.Errorf("invalid action #%d (%s) in match file", ii, board.ActionString(action))
			return
		}
		board = board.Act(action)
		boards = append(boards, board)
	}
	klog.V(2).Infof("Loaded match with board size %d, %d actions", size, len(actions))
	return
}
