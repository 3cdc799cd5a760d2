//go:build windows

package webgpu

// WGSL compute shaders for the fused loss. One invocation handles one row;
// rows need no cross-row synchronization.

// forwardShader computes the smoothed per-row loss and the max-inclusive
// log-sum-exp in a single pass over each row.
const forwardShader = `
@group(0) @binding(0) var<storage, read> logits: array<f32>;
@group(0) @binding(1) var<storage, read> labels: array<i32>;
@group(0) @binding(2) var<storage, read_write> loss: array<f32>;
@group(0) @binding(3) var<storage, read_write> lse: array<f32>;

struct Params {
    rows: u32,
    classes: u32,
    smoothing: f32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.rows) {
        return;
    }

    let offset = row * params.classes;

    // Max-shift for numerical stability.
    var max_val: f32 = logits[offset];
    for (var c: u32 = 1u; c < params.classes; c = c + 1u) {
        max_val = max(max_val, logits[offset + c]);
    }

    var sum_exp: f32 = 0.0;
    var sum: f32 = 0.0;
    for (var c: u32 = 0u; c < params.classes; c = c + 1u) {
        let v = logits[offset + c];
        sum_exp = sum_exp + exp(v - max_val);
        sum = sum + v;
    }

    let row_lse = max_val + log(sum_exp);
    let target = u32(labels[row]);
    let ce = row_lse - logits[offset + target];
    let smooth = row_lse - sum / f32(params.classes);

    loss[row] = (1.0 - params.smoothing) * ce + params.smoothing * smooth;
    lse[row] = row_lse;
}
`

// backwardShader reconstructs softmax from the saved log-sum-exp and
// subtracts the smoothed one-hot target, scaled by the upstream gradient.
const backwardShader = `
@group(0) @binding(0) var<storage, read> grad_loss: array<f32>;
@group(0) @binding(1) var<storage, read> logits: array<f32>;
@group(0) @binding(2) var<storage, read> lse: array<f32>;
@group(0) @binding(3) var<storage, read> labels: array<i32>;
@group(0) @binding(4) var<storage, read_write> grad: array<f32>;

struct Params {
    rows: u32,
    classes: u32,
    smoothing: f32,
}
@group(0) @binding(5) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.rows) {
        return;
    }

    let offset = row * params.classes;
    let g = grad_loss[row];
    let row_lse = lse[row];
    let target = u32(labels[row]);
    let uniform_mass = params.smoothing / f32(params.classes);
    let confidence = 1.0 - params.smoothing;

    for (var c: u32 = 0u; c < params.classes; c = c + 1u) {
        let prob = exp(logits[offset + c] - row_lse);
        var expected = uniform_mass;
        if (c == target) {
            expected = expected + confidence;
        }
        grad[offset + c] = g * (prob - expected);
    }
}
`
