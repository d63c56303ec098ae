// Package consensus runs proposal-based quorum decisions for a swarm:
// open a proposal, collect votes, and tally a result once the deadline
// passes or every eligible voter has voted. Follows the analyze (tally) ->
// recommend (decide) pipeline shape of internal/supervisor/decision.go's
// DecisionEngine, generalized from a finding-severity tally to a vote
// tally over arbitrary options.
package consensus

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hive-mind/coordinator/internal/bus"
	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/store"
	"github.com/hive-mind/coordinator/internal/types"
)

// DefaultParticipationFloor is the minimum fraction of eligible voters that
// must vote by the deadline, or the proposal times out regardless of
// algorithm.
const DefaultParticipationFloor = 0.5

// QueenVoteWeight is how many votes the weighted algorithm's designated
// voter (the Queen, by default) contributes; every other voter contributes
// one vote.
const QueenVoteWeight = 3

// Engine runs proposal lifecycles for a swarm.
type Engine struct {
	store              store.Store
	bus                *bus.Bus
	log                *logrus.Entry
	participationFloor float64
	minConfidence      float64
}

// New builds an Engine with the default 50% participation floor.
func New(st store.Store, b *bus.Bus, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{store: st, bus: b, log: log, participationFloor: DefaultParticipationFloor}
}

// SetParticipationFloor overrides the default 50% quorum floor.
func (e *Engine) SetParticipationFloor(f float64) {
	e.participationFloor = f
}

// SetMinConfidence sets the quality floor a weighted decision's tally
// confidence must clear to be accepted; below it, the proposal resolves to
// NoConsensus instead of handing the Queen's 3x-weighted vote a win on a
// thin margin. Zero (the default) disables the check.
func (e *Engine) SetMinConfidence(f float64) {
	e.minConfidence = f
}

// Propose opens a new proposal. weightedVoter is only meaningful for the
// weighted algorithm; callers pass "" to default it to the swarm's Queen at
// vote time via Vote's caller (the Coordinator knows the Queen's agent id).
func (e *Engine) Propose(swarmID, topic string, options []string, algorithm types.ConsensusAlgorithm, deadline time.Time, eligibleVoters []string, weightedVoter string) (*types.Proposal, error) {
	if topic == "" {
		return nil, hiveerr.New(hiveerr.InvalidRequest, "topic is required")
	}
	if len(options) < 2 {
		return nil, hiveerr.New(hiveerr.InvalidRequest, "a proposal needs at least two options")
	}
	if algorithm == "" {
		algorithm = types.AlgorithmMajority
	}

	p := &types.Proposal{
		ID:             uuid.New().String(),
		SwarmID:        swarmID,
		Topic:          topic,
		Options:        options,
		Algorithm:      algorithm,
		Deadline:       deadline,
		Status:         types.ProposalOpen,
		Votes:          make(map[string]string),
		EligibleVoters: eligibleVoters,
		WeightedVoter:  weightedVoter,
		CreatedAt:      time.Now(),
	}
	if err := e.store.PutProposal(p); err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "persist proposal", err)
	}
	return p, nil
}

// Vote records voter's choice. Choices outside the proposal's options are
// rejected. If every eligible voter has now voted, the proposal is closed
// immediately; otherwise it stays open until CloseIfExpired runs.
func (e *Engine) Vote(proposalID, voter, choice string) (*types.Proposal, error) {
	p, err := e.store.GetProposal(proposalID)
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.UnknownEntity, "unknown proposal", err)
	}
	if p.Status != types.ProposalOpen {
		return nil, hiveerr.New(hiveerr.InvalidRequest, "proposal "+proposalID+" is no longer open")
	}
	if !containsOption(p.Options, choice) {
		return nil, hiveerr.New(hiveerr.InvalidRequest, "choice "+choice+" is not among the proposal's options")
	}
	if len(p.EligibleVoters) > 0 && !containsOption(p.EligibleVoters, voter) {
		return nil, hiveerr.New(hiveerr.InvalidRequest, "voter "+voter+" is not eligible for this proposal")
	}

	p.Votes[voter] = choice

	if len(p.EligibleVoters) > 0 && allVoted(p) {
		e.close(p)
	}
	if err := e.store.PutProposal(p); err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "persist vote", err)
	}
	return p, nil
}

func allVoted(p *types.Proposal) bool {
	for _, voter := range p.EligibleVoters {
		if _, ok := p.Votes[voter]; !ok {
			return false
		}
	}
	return true
}

// CloseIfExpired closes proposalID if its deadline has passed and it is
// still open, tallying a decision or timing it out on low participation.
// The Coordinator is expected to call this on a timer for every open
// proposal it tracks.
func (e *Engine) CloseIfExpired(proposalID string, now time.Time) (*types.Proposal, error) {
	p, err := e.store.GetProposal(proposalID)
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.UnknownEntity, "unknown proposal", err)
	}
	if p.Status != types.ProposalOpen {
		return p, nil
	}
	if now.Before(p.Deadline) {
		return p, nil
	}
	e.close(p)
	if err := e.store.PutProposal(p); err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "persist closed proposal", err)
	}
	return p, nil
}

// close tallies p's votes per its algorithm and sets its terminal status,
// decision, and confidence. Callers must persist p afterwards.
func (e *Engine) close(p *types.Proposal) {
	p.ClosedAt = time.Now()

	if !e.meetsParticipationFloor(p) {
		p.Status = types.ProposalTimedOut
		p.Decision = types.NoConsensus
		p.Confidence = 0
		e.emit(p)
		return
	}

	p.Status = types.ProposalDecided
	switch p.Algorithm {
	case types.AlgorithmWeighted:
		p.Decision, p.Confidence = tallyWeighted(p)
		if e.minConfidence > 0 && p.Confidence < e.minConfidence {
			p.Decision, p.Confidence = types.NoConsensus, 0
		}
	case types.AlgorithmByzantine:
		p.Decision, p.Confidence = tallyByzantine(p)
	default:
		p.Decision, p.Confidence = tallyMajority(p)
	}
	e.emit(p)
}

func (e *Engine) meetsParticipationFloor(p *types.Proposal) bool {
	if len(p.EligibleVoters) == 0 {
		return len(p.Votes) > 0
	}
	return float64(len(p.Votes))/float64(len(p.EligibleVoters)) >= e.participationFloor
}

func (e *Engine) emit(p *types.Proposal) {
	e.bus.Publish(bus.NewMessage(bus.KindNotification, "consensus", "", bus.PriorityNormal, map[string]interface{}{
		"proposal_id": p.ID,
		"swarm_id":    p.SwarmID,
		"status":      string(p.Status),
		"decision":    p.Decision,
		"confidence":  p.Confidence,
	}))
}

func containsOption(options []string, choice string) bool {
	for _, o := range options {
		if o == choice {
			return true
		}
	}
	return false
}

// tally is a sorted (option, count) pair used by every algorithm to break
// ties by option order.
type tally struct {
	option string
	count  float64
}

func tallies(p *types.Proposal, weights map[string]float64) []tally {
	counts := make(map[string]float64, len(p.Options))
	for _, o := range p.Options {
		counts[o] = 0
	}
	for voter, choice := range p.Votes {
		counts[choice] += weights[voter]
	}
	result := make([]tally, 0, len(p.Options))
	for _, o := range p.Options {
		result = append(result, tally{option: o, count: counts[o]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].count > result[j].count
	})
	return result
}

func equalWeights(p *types.Proposal) map[string]float64 {
	w := make(map[string]float64, len(p.Votes))
	for voter := range p.Votes {
		w[voter] = 1
	}
	return w
}

func tallyMajority(p *types.Proposal) (string, float64) {
	ranked := tallies(p, equalWeights(p))
	total := float64(len(p.Votes))
	if total == 0 || len(ranked) == 0 {
		return types.NoConsensus, 0
	}
	return ranked[0].option, ranked[0].count / total
}

func tallyWeighted(p *types.Proposal) (string, float64) {
	weights := equalWeights(p)
	if p.WeightedVoter != "" {
		if _, voted := p.Votes[p.WeightedVoter]; voted {
			weights[p.WeightedVoter] = QueenVoteWeight
		}
	}
	ranked := tallies(p, weights)
	total := float64(len(p.Votes)) + float64(QueenVoteWeight-1)
	if len(ranked) == 0 || total <= 0 {
		return types.NoConsensus, 0
	}
	return ranked[0].option, ranked[0].count / total
}

func tallyByzantine(p *types.Proposal) (string, float64) {
	ranked := tallies(p, equalWeights(p))
	total := float64(len(p.Votes))
	if total == 0 || len(ranked) == 0 {
		return types.NoConsensus, 0
	}
	confidence := ranked[0].count / total
	if confidence >= 2.0/3.0 {
		return ranked[0].option, confidence
	}
	return types.NoConsensus, 0
}
