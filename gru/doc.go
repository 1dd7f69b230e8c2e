// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gru provides a single GRU step and its gradient.
//
// # Overview
//
// For a batch of rows, with frame size f, the step computes
//
//	u = act_g(x_u + b_u + hp·W_u)        update gate
//	r = act_g(x_r + b_r + hp·W_r)        reset gate
//	c = act_c(x_c + b_c + (r⊙hp)·W_c)    candidate
//	h = u⊙(hp - c) + c
//
// where x is the 3f-wide projected input, hp the previous hidden state and W the f×3f
// recurrent weight. Forward also returns the activated gates and r⊙hp, which Backward
// needs to compute gradients for the input, previous hidden state, weight and bias.
//
// # Basic Usage
//
//	backend := cpu.New[float64]()
//	cell := gru.NewCell(backend, gru.DefaultAttrs(), weight, bias)
//	state := cell.Step(input, hiddenPrev)
//	grads := cell.Grad(state, hiddenGrad)
//
// Forward and Backward write into caller-provided buffers for callers that manage their
// own memory.
package gru
