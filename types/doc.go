// Copyright (c) Oratio Labs.
// Licensed under the MIT License.

/*
Package types provides the shared type contracts of the service.

types is the lowest-level package and depends on no other internal
package, so the llm, rag, and api layers can share message and error
definitions without import cycles.

Core types:

  - Role / Message    — closed role variant (system, user, assistant) with
    validated construction
  - Error / ErrorCode — structured errors carrying HTTP status, retryability,
    and the upstream provider that produced them
*/
package types
