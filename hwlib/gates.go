// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

// Not is a NOT gate.
//
//	Inputs: in
//	Outputs: out
//	Function: out = !in
//
const Not = "Not"

// And is a AND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && b
//
const And = "And"

// Nand is a NAND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a && b)
//
const Nand = "Nand"

// Or is a OR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a || b
//
const Or = "Or"

// Nor is a NOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a || b)
//
const Nor = "Nor"

// Xor is a XOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = (a && !b) || (!a && b)
//
const Xor = "Xor"

// Xnor is a XNOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && b || !a && !b
//
const Xnor = "Xnor"

// NotN is a N-bits NOT gate. N defaults to 16.
//
//	Parameters: N
//	Inputs: in[N]
//	Outputs: out[N]
//	Function: for i := range out { out[i] = !in[i] }
//
const NotN = "NotN"

// AndN, NandN, OrN and NorN are N-bits logic gates. N defaults to 16.
//
//	Parameters: N
//	Inputs: a[N], b[N]
//	Outputs: out[N]
//	Function: for i := range out { out[i] = f(a[i], b[i]) }
//
const (
	AndN  = "AndN"
	NandN = "NandN"
	OrN   = "OrN"
	NorN  = "NorN"
)

// OrNWay is a N-Way OR gate built from a chain of Or gates. N defaults to 4.
//
//	Parameters: N
//	Inputs: in[N]
//	Outputs: out
//	Function: out = in[0] || in[1] || in[2] || ... || in[N-1]
//
const OrNWay = "OrNWay"

// AndNWay is a N-Way AND gate built from a chain of And gates. N defaults to 4.
//
//	Parameters: N
//	Inputs: in[N]
//	Outputs: out
//	Function: out = in[0] && in[1] && in[2] && ... && in[N-1]
//
const AndNWay = "AndNWay"

func gate(name, expr string) {
	register(name, `
module `+name+`(input a, b, output out);
  assign out = `+expr+`;
endmodule`)
}

func gateN(name, expr string) {
	register(name, `
module `+name+` #(parameter N = 16) (input [N-1:0] a, b, output [N-1:0] out);
  assign out = `+expr+`;
endmodule`)
}

func nWay(name, gate string) {
	register(name, `
module `+name+` #(parameter N = 4) (input [N-1:0] in, output out);
  wire [N-1:0] acc;
  genvar i;
  assign acc[0] = in[0];
  generate
    for (i = 1; i < N; i = i + 1) begin : way
      `+gate+` g(.a(acc[i-1]), .b(in[i]), .out(acc[i]));
    end
  endgenerate
  assign out = acc[N-1];
endmodule`, gate)
}

func init() {
	register(Not, `
module Not(input in, output out);
  assign out = ~in;
endmodule`)
	gate(And, "a & b")
	gate(Nand, "~(a & b)")
	gate(Or, "a | b")
	gate(Nor, "~(a | b)")
	gate(Xor, "a ^ b")
	gate(Xnor, "a ~^ b")

	register(NotN, `
module NotN #(parameter N = 16) (input [N-1:0] in, output [N-1:0] out);
  assign out = ~in;
endmodule`)
	gateN(AndN, "a & b")
	gateN(NandN, "~(a & b)")
	gateN(OrN, "a | b")
	gateN(NorN, "~(a | b)")

	nWay(OrNWay, Or)
	nWay(AndNWay, And)
}
