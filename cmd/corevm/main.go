// Command corevm runs EVM bytecode from the command line.
//
// Usage:
//
//	corevm [flags]
//
// Flags:
//
//	--code      Hex-encoded bytecode to execute (required)
//	--input     Hex-encoded call data
//	--gas       Gas allowance (default: 10000000)
//	--create    Treat the code as initcode and deploy it
//	--trace     Print a step-by-step execution trace
//	--verbosity Log level 0-5 (default: 3)
//	--version   Print version and exit
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/holiman/uint256"

	"github.com/corevm/corevm/core/state"
	"github.com/corevm/corevm/core/types"
	"github.com/corevm/corevm/core/vm"
	"github.com/corevm/corevm/log"
)

var version = "v0.1.0-dev"

var (
	senderAddr   = types.HexToAddress("0x000000000000000000000000000000000000c0de")
	contractAddr = types.HexToAddress("0x00000000000000000000000000000000000000ff")
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	fs := flag.NewFlagSet("corevm", flag.ContinueOnError)
	var (
		codeHex     = fs.String("code", "", "hex-encoded bytecode to execute")
		inputHex    = fs.String("input", "", "hex-encoded call data")
		gas         = fs.Uint64("gas", 10_000_000, "gas allowance")
		create      = fs.Bool("create", false, "treat the code as initcode and deploy it")
		trace       = fs.Bool("trace", false, "print a step-by-step execution trace")
		verbosity   = fs.Int("verbosity", 3, "log level 0-5")
		showVersion = fs.Bool("version", false, "print version and exit")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Printf("corevm %s\n", version)
		return 0
	}

	log.SetDefault(log.NewText(log.VerbosityLevel(*verbosity)))
	logger := log.Default().Module("cli")

	if *codeHex == "" {
		fmt.Fprintln(os.Stderr, "Error: --code is required")
		fs.Usage()
		return 2
	}
	code := types.FromHex(*codeHex)
	if len(code) == 0 {
		logger.Error("--code is not valid hex")
		return 2
	}
	input := types.FromHex(*inputHex)

	var tracer *vm.StructLogTracer
	cfg := vm.Config{ChainID: uint256.NewInt(1)}
	if *trace {
		tracer = vm.NewStructLogTracer()
		cfg.Tracer = tracer
	}

	db := state.NewMemoryStateDB()
	evm := vm.NewEVM(vm.BlockContext{GasLimit: *gas}, vm.TxContext{Origin: senderAddr}, db, cfg)

	logger.Debug("executing", "codeSize", len(code), "inputSize", len(input), "gas", *gas, "create", *create)

	var (
		res *vm.ExecutionResult
		err error
	)
	if *create {
		res, err = evm.Create(senderAddr, code, *gas, nil)
	} else {
		db.SetCode(contractAddr, code)
		db.Finalise()
		res, err = evm.Call(senderAddr, contractAddr, input, *gas, nil)
	}
	if err != nil {
		logger.Error("execution aborted", "err", err)
		return 1
	}

	if tracer != nil {
		printTrace(tracer)
	}
	printResult(res, db)

	if res.Failed() {
		return 1
	}
	return 0
}

func printTrace(tracer *vm.StructLogTracer) {
	for _, e := range tracer.Entries {
		fmt.Printf("pc=%-5d op=%-14s gas=%-8d cost=%-6d depth=%d stack=%s",
			e.Pc, e.Op, e.Gas, e.GasCost, e.Depth, formatStack(e.Stack))
		if e.Err != nil {
			fmt.Printf(" err=%v", e.Err)
		}
		fmt.Println()
	}
}

func formatStack(stack []uint256.Int) string {
	if len(stack) == 0 {
		return "[]"
	}
	out := "["
	for i := range stack {
		if i > 0 {
			out += " "
		}
		out += stack[i].Hex()
	}
	return out + "]"
}

func printResult(res *vm.ExecutionResult, db *state.MemoryStateDB) {
	switch res.Status {
	case vm.StatusSuccess:
		fmt.Printf("status:   success (%s)\n", res.SuccessReason)
	case vm.StatusRevert:
		fmt.Println("status:   revert")
	case vm.StatusHalt:
		fmt.Printf("status:   halt (%s)\n", res.HaltReason)
	}
	fmt.Printf("gas used: %d\n", res.GasUsed)
	if res.GasRefunded > 0 {
		fmt.Printf("refund:   %d\n", res.GasRefunded)
	}
	if len(res.Output) > 0 {
		fmt.Printf("output:   0x%x\n", res.Output)
	}
	if res.CreatedAddress != (types.Address{}) {
		fmt.Printf("created:  %s\n", res.CreatedAddress)
		fmt.Printf("code:     0x%x\n", db.GetCode(res.CreatedAddress))
	}
	for i, l := range res.Logs {
		fmt.Printf("log %d:    address=%s topics=%v data=0x%x\n", i, l.Address, l.Topics, l.Data)
	}
}
