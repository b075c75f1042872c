// Copyright (c) Oratio Labs.
// Licensed under the MIT License.

/*
Package llm defines the unified chat model abstraction.

The Provider interface covers the two generation modes the service needs:
a blocking Completion call that returns the full text, and a Stream call
that yields incremental fragments over a channel. Concrete adapters live
in llm/providers; embedding providers in llm/embedding; token counting in
llm/tokenizer.

Errors from adapters are *types.Error values with the upstream HTTP status
mapped to a service error code, so the request boundary can translate them
without inspecting transport details.
*/
package llm
