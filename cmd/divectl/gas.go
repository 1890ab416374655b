package main

import (
	"fmt"

	"github.com/hjeldin/dive-computer-proto/internal/divecalc"
	"github.com/spf13/pflag"
)

func runGas(e env, args []string) error {
	var (
		depth   uint16
		minutes uint16
		mix     string
		sac     float64
	)
	flags := pflag.NewFlagSet("gas", pflag.ContinueOnError)
	flags.SetOutput(e.stderr)
	flags.Uint16VarP(&depth, "depth", "d", 30, "depth in meters")
	flags.Uint16VarP(&minutes, "time", "t", 30, "bottom time in minutes")
	flags.StringVarP(&mix, "mix", "m", "air", "gas mix: air, EAN32, TX21/35")
	flags.Float64Var(&sac, "sac", 20, "surface consumption in liters per minute")
	if err := flags.Parse(args); err != nil {
		return err
	}

	gas, err := divecalc.ParseGas(mix)
	if err != nil {
		return err
	}
	ppo2, err := divecalc.PPO2(depth, gas)
	if err != nil {
		return err
	}
	ead, err := divecalc.EAD(depth, gas)
	if err != nil {
		return err
	}
	ndl, err := divecalc.NDL(depth, gas)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "gas:  %s at %dm\n", gas, depth)
	fmt.Fprintf(e.stdout, "ppo2: %d.%02d bar\n", ppo2/100, ppo2%100)
	fmt.Fprintf(e.stdout, "ead:  %dm\n", ead)
	if ndl >= divecalc.NDLCutoff {
		fmt.Fprintf(e.stdout, "ndl:  >%d min\n", divecalc.NDLCutoff)
	} else {
		fmt.Fprintf(e.stdout, "ndl:  %d min\n", ndl)
	}
	fmt.Fprintf(e.stdout, "use:  %.0f l over %d min\n", divecalc.GasConsumption(depth, minutes, sac), minutes)
	return nil
}
