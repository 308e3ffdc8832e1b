// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"memoc/internal/lsp"
)

const lsName = "memoc"

var (
	version = "0.0.1"
	handler protocol.Handler
)

func main() {
	commonlog.Configure(1, nil)

	memocHandler := lsp.NewHandler()

	handler = protocol.Handler{
		Initialize:            memocHandler.Initialize,
		Initialized:           memocHandler.Initialized,
		Shutdown:              memocHandler.Shutdown,
		SetTrace:              memocHandler.SetTrace,
		TextDocumentDidOpen:   memocHandler.TextDocumentDidOpen,
		TextDocumentDidChange: memocHandler.TextDocumentDidChange,
		TextDocumentDidClose:  memocHandler.TextDocumentDidClose,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting memoc LSP server...")

	if err := s.RunStdio(); err != nil {
		log.Println("Error starting memoc LSP server:", err)
		os.Exit(1)
	}
}
