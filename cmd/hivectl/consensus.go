package main

import (
	"github.com/spf13/cobra"
)

func newConsensusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consensus",
		Short: "Open proposals and cast votes",
	}
	cmd.AddCommand(newConsensusProposeCommand(), newConsensusVoteCommand())
	return cmd
}

func newConsensusProposeCommand() *cobra.Command {
	var (
		swarmID   string
		topic     string
		options   []string
		algorithm string
	)

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Open a new consensus proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if swarmID == "" || topic == "" || len(options) < 2 {
				return usageErrf("propose requires --swarm-id, --topic, and at least two --option values")
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			req := map[string]interface{}{
				"topic":   topic,
				"options": options,
			}
			if algorithm != "" {
				req["algorithm"] = algorithm
			}

			var resp struct {
				ProposalID string `json:"proposal_id"`
			}
			if err := client.do("POST", "/swarms/"+swarmID+"/proposals", req, &resp); err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().StringVar(&swarmID, "swarm-id", "", "swarm to propose within")
	cmd.Flags().StringVar(&topic, "topic", "", "proposal topic")
	cmd.Flags().StringArrayVar(&options, "option", nil, "a selectable option (repeatable, at least two required)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "majority|weighted|byzantine (default: majority; spawn's --consensus is not applied to proposals)")
	return cmd
}

func newConsensusVoteCommand() *cobra.Command {
	var (
		proposalID string
		voter      string
		choice     string
	)

	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Cast a vote on an open proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if proposalID == "" || voter == "" || choice == "" {
				return usageErrf("vote requires --proposal-id, --voter, and --choice")
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			var proposal map[string]interface{}
			req := map[string]string{"voter": voter, "choice": choice}
			if err := client.do("POST", "/proposals/"+proposalID+"/votes", req, &proposal); err != nil {
				return err
			}
			return printJSON(proposal)
		},
	}

	cmd.Flags().StringVar(&proposalID, "proposal-id", "", "proposal to vote on")
	cmd.Flags().StringVar(&voter, "voter", "", "voting agent or user id")
	cmd.Flags().StringVar(&choice, "choice", "", "the chosen option")
	return cmd
}
