package main

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/kzg"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/eon-protocol/plonkish"
)

var (
	srsOut    string
	keygenOut string
	verifyVk  string
)

var srsCmd = &cobra.Command{
	Use:   "srs",
	Short: "Load or generate the KZG parameters and print the sha256 of every Lagrange basis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := cfg.Params()
		if err != nil {
			return err
		}
		if srsOut != "" {
			if err := plonkish.SaveParams(params, srsOut); err != nil {
				return err
			}
		}
		bar := progressbar.Default(int64(params.K)+1, "Lagrange bases")
		sums := make([]string, params.K+1)
		for i := range sums {
			lk, err := kzg.ToLagrangeG1(params.Srs.Pk.G1[:1<<i])
			if err != nil {
				return err
			}
			hasher := sha256.New()
			for _, xy := range lk {
				x, y := xy.X.Bytes(), xy.Y.Bytes()
				hasher.Write(x[:])
				hasher.Write(y[:])
			}
			sums[i] = hex.EncodeToString(hasher.Sum(nil))
			_ = bar.Add(1)
		}
		for i, sum := range sums {
			fmt.Fprintln(cmd.OutOrStdout(), "sha256", "(", "SRS.LK", "[", i, "]", ")", "=", sum)
		}
		return nil
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print the hex encoded verifying key of the configured circuit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := cfg.Params()
		if err != nil {
			return err
		}
		pk, err := cfg.Sample().Keygen(params)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if keygenOut != "" {
			f, err := os.Create(keygenOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if _, err := pk.Vk().WriteTo(hex.NewEncoder(out)); err != nil {
			return err
		}
		digest := pk.Vk().Digest()
		fmt.Fprintln(out)
		fmt.Fprintln(cmd.ErrOrStderr(), "vk digest:", digest.String())
		return nil
	},
}

var proveCmd = &cobra.Command{
	Use:   "prove <input>...",
	Short: "Prove the configured circuit on the given private inputs and print the hex encoded proof",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := parseElements(args)
		if err != nil {
			return err
		}
		params, err := cfg.Params()
		if err != nil {
			return err
		}
		pk, err := cfg.Sample().Keygen(params)
		if err != nil {
			return err
		}
		proof, instances, err := cfg.Sample().Prove(params, pk, inputs, cfg.Hash)
		if err != nil {
			return err
		}
		if _, err := proof.WriteTo(hex.NewEncoder(cmd.OutOrStdout())); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		for _, column := range instances {
			public := make([]string, len(column))
			for i := range column {
				public[i] = column[i].String()
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "public inputs:", strings.Join(public, " "))
		}
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <public input>...",
	Short: "Verify a hex encoded proof read from stdin against the given public inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		public, err := parseElements(args)
		if err != nil {
			return err
		}
		instances, err := cfg.Sample().Instances(public)
		if err != nil {
			return err
		}
		params, err := cfg.Params()
		if err != nil {
			return err
		}
		vk, err := loadVk(params)
		if err != nil {
			return err
		}

		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read proof: %w", err)
		}
		var proof plonkish.Proof
		if _, err := proof.ReadFrom(hex.NewDecoder(strings.NewReader(strings.TrimSpace(line)))); err != nil {
			return fmt.Errorf("decode proof: %w", err)
		}
		if err := proof.Verify(params, vk, instances, cfg.Hash); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

func init() {
	srsCmd.Flags().StringVarP(&srsOut, "out", "o", "", "also write the parameters to this file")
	keygenCmd.Flags().StringVarP(&keygenOut, "out", "o", "", "write the verifying key to this file instead of stdout")
	verifyCmd.Flags().StringVar(&verifyVk, "vk", "", "hex encoded verifying key, as printed by keygen (default: derive it)")
}
