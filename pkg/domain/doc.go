/*
Package domain contains the session-level models of the storytree player.

Stories themselves live in package story; this package describes a reading
of a story: where the reader is, which variables the script has set and what
the host must show next. It has no dependency on I/O or persistence.

# Key Entities

  - State: the snapshot of a session (current node, variables, history).
  - ActionRequest: what the host should render (content, choice, message).
  - LifecycleHooks: callbacks fired on node enter/leave and on choices.
  - StateDiff: the changes between two snapshots, for partial updates.
*/
package domain
