// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

// HalfAdder is a half adder.
//
//	Inputs: a, b
//	Outputs: s, c
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
const HalfAdder = "HalfAdder"

// FullAdder is a 3 bit adder.
//
//	Inputs: a, b, cin
//	Outputs: s, c
//	Function: s = lsb(a + b + cin)
//	          c = msb(a + b + cin)
//
const FullAdder = "FullAdder"

// AdderN is a N-bits ripple carry adder. N defaults to 16.
//
//	Parameters: N
//	Inputs: a[N], b[N]
//	Outputs: out[N], c
//
const AdderN = "AdderN"

// Add is a N-bits adder using the + operator. N defaults to 16.
//
//	Parameters: N
//	Inputs: a[N], b[N]
//	Outputs: out[N], c
//
const Add = "Add"

func init() {
	register(HalfAdder, `
module HalfAdder(input a, b, output s, c);
  Xor x(.a(a), .b(b), .out(s));
  And n(.a(a), .b(b), .out(c));
endmodule`, Xor, And)
	register(FullAdder, `
module FullAdder(input a, b, cin, output s, c);
  wire s0, c0, c1;
  HalfAdder h0(.a(a), .b(b), .s(s0), .c(c0));
  HalfAdder h1(.a(s0), .b(cin), .s(s), .c(c1));
  Or o(.a(c0), .b(c1), .out(c));
endmodule`, HalfAdder, Or)
	register(AdderN, `
module AdderN #(parameter N = 16) (input [N-1:0] a, b, output [N-1:0] out, output c);
  wire [N:0] carry;
  genvar i;
  assign carry[0] = 1'b0;
  generate
    for (i = 0; i < N; i = i + 1) begin : stage
      FullAdder fa(.a(a[i]), .b(b[i]), .cin(carry[i]), .s(out[i]), .c(carry[i+1]));
    end
  endgenerate
  assign c = carry[N];
endmodule`, FullAdder)
	register(Add, `
module Add #(parameter N = 16) (input [N-1:0] a, b, output [N-1:0] out, output c);
  assign {c, out} = {1'b0, a} + {1'b0, b};
endmodule`)
}
