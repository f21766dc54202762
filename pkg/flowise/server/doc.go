// Package server exposes Flowise and the flow analysis engine as an MCP
// server.
//
// New wires a Flowise API (normally a *client.Client) into an mcp-go server
// with the flowise_* tools, the analyze_agentflow and improve_chatbot prompts,
// and the flowise://flows resources:
//
//	c := client.New(client.WithBaseURL(url), client.WithAPIKey(key))
//	s, err := server.New(c, version, server.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	return s.ServeStdio()
//
// Tool arguments are trimmed, defaulted and validated before any request is
// made. Every failure is returned as a tool error result whose text is
// errors.Format of the cause; handlers never return transport errors.
package server
