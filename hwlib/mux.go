// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

// Mux is a multiplexer.
//
//	Inputs: a, b, sel
//	Outputs: out
//	Function: if sel == 0 { out = a } else { out = b }
//
const Mux = "Mux"

// DMux is a demultiplexer.
//
//	Inputs: in, sel
//	Outputs: a, b
//	Function: if sel == 0 { a = in; b = 0 } else { a = 0; b = in }
//
const DMux = "DMux"

// MuxN is a N-bits Mux. N defaults to 16.
//
//	Parameters: N
//	Inputs: a[N], b[N], sel
//	Outputs: out[N]
//	Function: for i := range out { if sel == 0 { out[i] = a[i] } else { out[i] = b[i] } }
//
const MuxN = "MuxN"

// MuxGates is a Mux built from Nand gates only.
//
const MuxGates = "MuxGates"

func init() {
	register(Mux, `
module Mux(input a, b, sel, output out);
  assign out = sel ? b : a;
endmodule`)
	register(DMux, `
module DMux(input in, sel, output a, b);
  assign a = sel ? 1'b0 : in;
  assign b = sel ? in : 1'b0;
endmodule`)
	register(MuxN, `
module MuxN #(parameter N = 16) (input [N-1:0] a, b, input sel, output [N-1:0] out);
  assign out = sel ? b : a;
endmodule`)
	register(MuxGates, `
module MuxGates(input a, b, sel, output out);
  wire nsel, x, y;
  Nand n0(.a(sel), .b(sel), .out(nsel));
  Nand n1(.a(a), .b(nsel), .out(x));
  Nand n2(.a(b), .b(sel), .out(y));
  Nand n3(.a(x), .b(y), .out(out));
endmodule`, Nand)
}
