// qngdemo opens the QWQNG device, calls every accessor once and prints the
// results. Any error aborts the run with a non-zero exit code.
package main

import (
	"fmt"
	"os"

	"github.com/Thiagojm/medqrng_go/medqrng"
)

const diagnosticsCode = 0x15

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	q, err := medqrng.Open()
	if err != nil {
		return err
	}
	defer q.Close()

	n, err := q.RandInt32()
	if err != nil {
		return err
	}
	fmt.Printf("RandInt32 = %d\n", n)

	u, err := q.RandUniform()
	if err != nil {
		return err
	}
	fmt.Printf("RandUniform = %v\n", u)

	g, err := q.RandNormal()
	if err != nil {
		return err
	}
	fmt.Printf("RandNormal = %v\n", g)

	b, err := q.RandBytes(10)
	if err != nil {
		return err
	}
	fmt.Printf("RandBytes(10) = %v\n", b)

	id, err := q.DeviceID()
	if err != nil {
		return err
	}
	fmt.Printf("DeviceId = %s\n", id)

	info, err := q.RuntimeInfo()
	if err != nil {
		return err
	}
	fmt.Printf("RuntimeInfo = %v\n", info)

	dx, err := q.Diagnostics(diagnosticsCode)
	if err != nil {
		return err
	}
	fmt.Printf("Diagnostics(0x%X) = %v\n", diagnosticsCode, dx)

	if err := q.Clear(); err != nil {
		return err
	}
	fmt.Println("Buffers cleared.")

	if err := q.Reset(); err != nil {
		return err
	}
	fmt.Println("Device reset.")
	return nil
}
