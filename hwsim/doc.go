/*
Package hwsim provides a naive gate-level hardware simulator and an API to
compose basic components (logic gates, muxers, flip flops, etc.) into more
complex ones.

The API is designed to mimic a real hardware description language. As a
result, it relies heavily on closures and can feel a bit awkward when
implementing custom components.

A circuit holds two frames of wire states. Each simulation step runs every
component once: components read the current frame with Get and write the next
one with Set, then frames are swapped. A signal therefore takes one step per
component to propagate, and Settle runs steps until the circuit is stable.
*/
package hwsim
