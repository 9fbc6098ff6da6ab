// Command fixqdf repairs a PDF file previously written in QDF mode,
// restoring correct stream lengths and cross-reference offsets.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/masmx86/fixqdf"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s input.qdf output.pdf\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	inPath, outPath := flag.Arg(0), flag.Arg(1)

	input, err := os.ReadFile(inPath)
	if err != nil {
		log.Fatal(err)
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		log.Fatal(err)
	}
	defer outFile.Close()

	w := bufio.NewWriter(outFile)
	if err := fixqdf.Process(inPath, input, w); err != nil {
		log.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		log.Fatal(err)
	}
}
